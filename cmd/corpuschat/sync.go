package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corpuschat/corpuschat/internal/corpus"
	"github.com/corpuschat/corpuschat/internal/ragapi"
	"github.com/corpuschat/corpuschat/internal/utils"
)

func init() {
	rootCmd.AddCommand(newSyncCmd())
}

func newSyncCmd() *cobra.Command {
	var forceReload bool
	var resume bool

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the corpus directory to the remote store and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := buildConfig()
			if err != nil {
				return err
			}
			if cfg.SourceDir == "" {
				return errors.New("source_dir is required (use --source)")
			}
			if err := utils.EnsureDir(cfg.DataDir); err != nil {
				return err
			}

			api, err := ragapi.New(cfg.APIURL, cfg.APIKey)
			if err != nil {
				return err
			}

			ledger := corpus.NewLedger(cfg.LedgerPath())
			if err := ledger.Open(); err != nil {
				return err
			}
			defer ledger.Close()

			engine := corpus.NewEngine(api, ledger, corpus.UploaderConfig{
				MaxAttempts:     cfg.Upload.MaxAttempts,
				BackoffBase:     cfg.Upload.BackoffBase,
				PollInterval:    cfg.Upload.PollInterval,
				MaxPolls:        cfg.Upload.MaxPolls,
				PostUploadDelay: cfg.Upload.PostUploadDelay,
			})
			engine.TargetCount = cfg.TargetCount

			// stream per-file progress while the run is in flight
			events := engine.Progress().Subscribe()
			defer engine.Progress().Unsubscribe(events)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for ev := range events {
					switch ev.State {
					case corpus.ProgressUploading:
						fmt.Printf("[%d/%d] %s %s\n", ev.Index, ev.Total, cyan("uploading"), ev.FileName)
					case corpus.ProgressSucceeded:
						fmt.Printf("[%d/%d] %s %s\n", ev.Index, ev.Total, green("done"), ev.FileName)
					case corpus.ProgressFailed:
						fmt.Printf("[%d/%d] %s %s: %s\n", ev.Index, ev.Total, red("failed"), ev.FileName, ev.Error)
					}
				}
			}()

			res, err := engine.Sync(cmd.Context(), cfg.StoreName, cfg.SourceDir, corpus.SyncOptions{
				ForceReload: forceReload,
				Resume:      resume,
			})
			engine.Progress().Unsubscribe(events)
			<-done
			if err != nil {
				return err
			}

			fmt.Println()
			fmt.Printf("store      %s (%s)\n", res.StoreName, res.StoreID)
			fmt.Printf("uploaded   %s\n", green(len(res.Successful)))
			fmt.Printf("failed     %s\n", red(len(res.Failed)))
			fmt.Printf("skipped    %d\n", len(res.Skipped))
			fmt.Printf("remote     %d documents\n", res.RemoteDocumentCount)
			fmt.Printf("duration   %s\n", res.Duration.Round(time.Millisecond))
			if len(res.Failed) > 0 {
				return fmt.Errorf("%d of %d uploads failed", len(res.Failed), len(res.Successful)+len(res.Failed))
			}
			return nil
		},
	}

	syncCmd.Flags().BoolVarP(&forceReload, "force-reload", "f", false, "Delete the remote store and re-upload everything")
	syncCmd.Flags().BoolVarP(&resume, "resume", "r", false, "Upload only documents missing from the ledger")

	return syncCmd
}
