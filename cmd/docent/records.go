package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/docentlabs/docent/pkg/ports"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect and reset stored tour records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tours with stored records",
	Run: func(cmd *cobra.Command, args []string) {
		if err := withStore(cmd, runRecordsList); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var recordsShowCmd = &cobra.Command{
	Use:   "show <tour>",
	Short: "Print the stored record for a tour as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := withStore(cmd, func(ctx context.Context, store ports.RecordStore) error {
			record, err := store.Load(ctx, args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var recordsResetCmd = &cobra.Command{
	Use:   "reset <tour>",
	Short: "Delete the stored record for a tour, re-arming its auto-launch",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := withStore(cmd, func(ctx context.Context, store ports.RecordStore) error {
			if err := store.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Record for %q deleted.\n", args[0])
			return nil
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)
	recordsCmd.AddCommand(recordsResetCmd)
}

func withStore(cmd *cobra.Command, fn func(context.Context, ports.RecordStore) error) error {
	store, closeFn, err := newStore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(cmd.Context(), store)
}

func runRecordsList(ctx context.Context, store ports.RecordStore) error {
	names, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No records stored.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOUR\tVISITED\tCOMPLETED\tSKIPPED\tSTEPS AT EXIT\tWHEN")
	for _, name := range names {
		record, err := store.Load(ctx, name)
		if err != nil {
			return fmt.Errorf("load %q: %w", name, err)
		}
		fmt.Fprintf(w, "%s\t%t\t%t\t%t\t%d\t%s\n",
			record.TourName,
			record.Visited,
			record.Completed,
			record.Skipped,
			record.StepsCompletedAtExit,
			formatWhen(record.CompletedAt, record.SkippedAt, record.VisitedAt),
		)
	}
	return w.Flush()
}

// formatWhen picks the most significant timestamp the record carries.
func formatWhen(candidates ...*time.Time) string {
	for _, ts := range candidates {
		if ts != nil {
			return ts.Format(time.RFC3339)
		}
	}
	return "-"
}
