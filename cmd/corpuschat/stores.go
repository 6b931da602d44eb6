package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/corpuschat/corpuschat/internal/corpus"
	"github.com/corpuschat/corpuschat/internal/ragapi"
)

func init() {
	rootCmd.AddCommand(newStoresCmd())
}

func newStoresCmd() *cobra.Command {
	storesCmd := &cobra.Command{
		Use:   "stores",
		Short: "Inspect and repair remote document stores",
	}
	storesCmd.AddCommand(newStoresListCmd())
	storesCmd.AddCommand(newStoresInspectCmd())
	storesCmd.AddCommand(newStoresReconcileCmd())
	storesCmd.AddCommand(newStoresDeleteCmd())
	return storesCmd
}

// storeDirectory builds a ledger-backed directory for the maintenance
// subcommands. The returned closer releases the ledger database.
func storeDirectory() (*corpus.Directory, func() error, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, nil, err
	}
	api, err := ragapi.New(cfg.APIURL, cfg.APIKey)
	if err != nil {
		return nil, nil, err
	}
	ledger := corpus.NewLedger(cfg.LedgerPath())
	if err := ledger.Open(); err != nil {
		return nil, nil, err
	}
	return corpus.NewDirectory(api, ledger), ledger.Close, nil
}

func newStoresListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List remote stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			dir, closeLedger, err := storeDirectory()
			if err != nil {
				return err
			}
			defer closeLedger()

			stores, err := dir.List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tID\tDOCS\tSIZE")
			for _, s := range stores {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.DisplayName, s.StoreID, s.ActiveDocumentCount, humanize.Bytes(uint64(s.SizeBytes)))
			}
			return w.Flush()
		},
	}
}

func newStoresInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Group stores by display name and flag duplicates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			dir, closeLedger, err := storeDirectory()
			if err != nil {
				return err
			}
			defer closeLedger()

			groups, err := dir.Inspect(cmd.Context())
			if err != nil {
				return err
			}

			for _, g := range groups {
				label := green("ok")
				if g.Duplicate {
					label = red("duplicate")
				}
				fmt.Printf("%s (%d stores) %s\n", g.DisplayName, len(g.Stores), label)
				for _, s := range g.Stores {
					fmt.Printf("  %s  %d docs  %s\n", s.StoreID, s.ActiveDocumentCount, humanize.Bytes(uint64(s.SizeBytes)))
				}
			}
			return nil
		},
	}
}

func newStoresReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [name]",
		Short: "Delete duplicate stores for a display name, keeping the canonical one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := buildConfig()
			if err != nil {
				return err
			}
			name := cfg.StoreName
			if len(args) > 0 {
				name = args[0]
			}

			dir, closeLedger, err := storeDirectory()
			if err != nil {
				return err
			}
			defer closeLedger()

			report, err := dir.ReconcileDuplicates(cmd.Context(), name)
			if err != nil {
				return err
			}
			if report.Found <= 1 {
				fmt.Printf("%s: nothing to reconcile (%d store)\n", name, report.Found)
				return nil
			}
			fmt.Printf("%s: kept %s, deleted %d duplicate(s)\n", name, cyan(report.KeptID), report.Deleted)
			return nil
		},
	}
}

func newStoresDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <store-id>",
		Short: "Delete a remote store and its ledger entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			dir, closeLedger, err := storeDirectory()
			if err != nil {
				return err
			}
			defer closeLedger()

			if err := dir.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}
