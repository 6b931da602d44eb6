package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/corpuschat/corpuschat/internal/corpus"
)

func init() {
	rootCmd.AddCommand(newLedgerCmd())
}

func newLedgerCmd() *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and repair the local upload ledger",
	}
	ledgerCmd.AddCommand(newLedgerShowCmd())
	ledgerCmd.AddCommand(newLedgerDedupeCmd())
	return ledgerCmd
}

func openLedger() (*corpus.Ledger, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}
	ledger := corpus.NewLedger(cfg.LedgerPath())
	if err := ledger.Open(); err != nil {
		return nil, err
	}
	return ledger, nil
}

func newLedgerShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show ledger entries per store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ledger, err := openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()

			entries, err := ledger.Entries()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STORE\tFILES\tLAST UPDATE\tDUPLICATES")
			for _, e := range entries {
				dupes := "no"
				if e.HasDuplicates {
					dupes = red("yes")
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", e.StoreID, len(e.UploadedFiles), e.LastUpdate.Format(time.RFC3339), dupes)
			}
			return w.Flush()
		},
	}
}

func newLedgerDedupeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe <store-id>",
		Short: "Collapse duplicate ledger rows for a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ledger, err := openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()

			report, err := ledger.Deduplicate(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d -> %d rows (%d removed)\n", args[0], report.Before, report.After, report.Removed)
			return nil
		},
	}
}
