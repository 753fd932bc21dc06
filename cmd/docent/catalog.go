package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/docentlabs/docent/pkg/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List and validate the tours in the catalog",
	Long:  `Loads the tour catalog from the configured source, validates every definition, and prints a summary table.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCatalog(cmd); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command) error {
	logger := newLogger(cmd)
	source, err := newSource(cmd, logger)
	if err != nil {
		return err
	}

	cat := catalog.New(source, catalog.WithLogger(logger))
	ctx := cmd.Context()

	// Load validates every tour and the view uniqueness invariant.
	if err := cat.Load(ctx); err != nil {
		return fmt.Errorf("catalog is invalid: %w", err)
	}

	tours, err := cat.Tours(ctx)
	if err != nil {
		return err
	}
	if len(tours) == 0 {
		fmt.Println("No tours found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTITLE\tVIEW\tSTEPS")
	for _, t := range tours {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", t.Name, t.Title, t.View, len(t.Steps))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d tour(s), all valid.\n", len(tours))
	return nil
}
