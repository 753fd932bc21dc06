package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/docentlabs/docent/pkg/adapters/snapshot"
	"github.com/docentlabs/docent/pkg/catalog"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
	"github.com/docentlabs/docent/pkg/resolve"
)

var auditCmd = &cobra.Command{
	Use:   "audit <snapshot.json>",
	Short: "Check every tour step against a UI snapshot",
	Long: `Resolves every step of every tour against a serialized UI snapshot
and reports which targets anchor, which need a fallback locator, and
which are missing. Use it in CI to catch tours broken by UI changes.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		broken, err := runAudit(cmd, args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if broken > 0 {
			fmt.Printf("\n%d step(s) did not anchor. ❌\n", broken)
			os.Exit(1)
		}
		fmt.Println("\nAll steps anchored. ✅")
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, snapshotPath string) (int, error) {
	logger := newLogger(cmd)

	surface, err := snapshot.Load(snapshotPath)
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}

	source, err := newSource(cmd, logger)
	if err != nil {
		return 0, err
	}
	cat := catalog.New(source, catalog.WithLogger(logger))

	ctx := cmd.Context()
	tours, err := cat.Tours(ctx)
	if err != nil {
		return 0, err
	}

	// A snapshot is static: polling it again never changes the answer.
	resolver := resolve.New(surface,
		resolve.WithRetryPolicy(resolve.RetryPolicy{MaxAttempts: 1}),
		resolve.WithLogger(logger),
	)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOUR\tSTEP\tRESULT\tLOCATOR")

	broken := 0
	for _, tour := range tours {
		for _, step := range tour.Steps {
			result, locator := auditStep(ctx, surface, resolver, step)
			if result == "missing" || result == "bad locator" {
				broken++
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", tour.Name, step.ID, result, locator)
		}
	}
	return broken, w.Flush()
}

func auditStep(ctx context.Context, surface ports.Surface, resolver *resolve.Resolver, step domain.Step) (result, locator string) {
	if len(step.Locators) == 0 {
		// Locator-less steps render centered; there is nothing to anchor.
		return "centered", "-"
	}

	res, err := resolver.Resolve(ctx, step)
	switch {
	case errors.Is(err, domain.ErrTargetNotFound):
		// The resolver skips malformed locators on its way to not-found;
		// re-probe each one so an author typo reads as such.
		for _, loc := range step.Locators {
			if _, ferr := surface.Find(ctx, loc); errors.Is(ferr, domain.ErrBadLocator) {
				return "bad locator", loc
			}
		}
		return "missing", firstLocator(step)
	case err != nil:
		return fmt.Sprintf("error: %v", err), firstLocator(step)
	}

	for _, p := range res.Patches {
		// Leave the snapshot as we found it for the next step.
		_ = p.Revert(ctx)
	}
	if res.LocatorIndex > 0 {
		return fmt.Sprintf("fallback #%d", res.LocatorIndex), step.Locators[res.LocatorIndex]
	}
	return "anchored", firstLocator(step)
}

func firstLocator(step domain.Step) string {
	if len(step.Locators) == 0 {
		return "-"
	}
	return step.Locators[0]
}
