package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/corpuschat/corpuschat/internal/config"
	"github.com/corpuschat/corpuschat/internal/utils"
	"github.com/corpuschat/corpuschat/internal/version"
)

var (
	home, _        = os.UserHomeDir()
	configFileName = "config"
)

var (
	red   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green = color.New(color.FgHiGreen).SprintFunc()
	cyan  = color.New(color.FgHiCyan).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:     "corpuschat",
	Short:   "CorpusChat corpus sync and chat service",
	Version: version.Detailed(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "config file")
	rootCmd.PersistentFlags().StringP("api-url", "u", "", "document index API base URL")
	rootCmd.PersistentFlags().StringP("api-key", "k", "", "document index API key")
	rootCmd.PersistentFlags().StringP("datadir", "d", config.DefaultDataDir, "data directory (ledger, lock, logs)")
	rootCmd.PersistentFlags().StringP("source", "s", "", "corpus source directory")
	rootCmd.PersistentFlags().StringP("name", "n", config.DefaultStoreName, "remote store display name")
	rootCmd.PersistentFlags().Int("target", 0, "expected corpus size, for completeness reporting")
}

func main() {
	setupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	logFile := config.Default().LogPath()
	if err := utils.EnsureParent(logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		os.Exit(1)
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}

	stdoutHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})

	slog.SetDefault(slog.New(utils.NewMultiLogHandler(stdoutHandler, fileHandler)))
}

func loadConfig(cmd *cobra.Command) error {
	// .env values feed the CORPUSCHAT_* environment lookups below
	_ = godotenv.Load()

	if cmd.Flags().Changed("config") {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".corpuschat"))
		viper.AddConfigPath(filepath.Join(home, ".config/corpuschat"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, ok := err.(viper.ConfigFileNotFoundError)
		if !enoent && !ok {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.BindPFlag("api_url", cmd.Flags().Lookup("api-url"))
	viper.BindPFlag("api_key", cmd.Flags().Lookup("api-key"))
	viper.BindPFlag("data_dir", cmd.Flags().Lookup("datadir"))
	viper.BindPFlag("source_dir", cmd.Flags().Lookup("source"))
	viper.BindPFlag("store_name", cmd.Flags().Lookup("name"))
	viper.BindPFlag("target_count", cmd.Flags().Lookup("target"))

	viper.SetEnvPrefix("CORPUSCHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return nil
}

// buildConfig materializes the merged flag/env/file settings on top of
// the defaults and validates them.
func buildConfig() (*config.Config, error) {
	cfg := config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	cfg.Path = viper.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
