package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/corpuschat/corpuschat/internal/server"
	"github.com/corpuschat/corpuschat/internal/version"
)

func init() {
	rootCmd.AddCommand(newDaemonCmd())
}

func newDaemonCmd() *cobra.Command {
	var addr string

	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Start the CorpusChat daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			slog.Info("corpuschat", "version", version.Version, "revision", version.Revision)

			if cmd.Flags().Changed("http-addr") {
				viper.Set("http_addr", addr)
			}

			cfg, err := buildConfig()
			if err != nil {
				return err
			}

			srv, err := server.New(cfg)
			if err != nil {
				return err
			}

			defer slog.Info("Bye!")
			if err := srv.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("daemon start", "error", err)
				return err
			}
			return nil
		},
	}

	daemonCmd.Flags().StringVarP(&addr, "http-addr", "a", "localhost:8118", "Address to bind the local http server")

	return daemonCmd
}
