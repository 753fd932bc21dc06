package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docentlabs/docent"
	"github.com/docentlabs/docent/pkg/adapters/snapshot"
	"github.com/docentlabs/docent/pkg/adapters/term"
	"github.com/docentlabs/docent/pkg/domain"
)

var runCmd = &cobra.Command{
	Use:   "run <tour>",
	Short: "Walk a tour interactively in the terminal",
	Long: `Runs a tour against a serialized UI snapshot, rendering each step as a
card in the terminal. Navigate with enter (next), p (previous),
j <step-id> (jump), s (skip) and q (quit).`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runTour(cmd, args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("snapshot", "", "UI snapshot file to resolve targets against (required)")
	_ = runCmd.MarkFlagRequired("snapshot")
}

func runTour(cmd *cobra.Command, tourName string) error {
	logger := newLogger(cmd)

	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	surface, err := snapshot.Load(snapshotPath)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	source, err := newSource(cmd, logger)
	if err != nil {
		return err
	}
	store, closeStore, err := newStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()

	presenter := term.NewPresenter(term.WithStepLookup(func(name string) []domain.Step {
		tour, err := source.Tour(ctx, name)
		if err != nil {
			return nil
		}
		return tour.Steps
	}))

	eng, err := docent.New(surface, "",
		docent.WithSource(source),
		docent.WithRecordStore(store),
		docent.WithLogger(logger),
		docent.WithHooks(presenter.Hooks()),
	)
	if err != nil {
		return err
	}

	snap, err := eng.Start(ctx, tourName)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	for snap.Status == domain.StatusRunning {
		fmt.Print("[enter=next, p=prev, j <id>=jump, s=skip, q=quit] > ")
		line, err := reader.ReadString('\n')
		if err != nil {
			// Stdin closed: walk forward until the tour completes.
			line = ""
		}
		input := strings.TrimSpace(line)

		switch {
		case input == "" || input == "n":
			snap, err = eng.Next(ctx)
		case input == "p":
			snap, err = eng.Previous(ctx)
		case input == "s":
			snap, err = eng.Skip(ctx)
		case input == "q":
			_, err = eng.Skip(ctx)
			if err != nil {
				return err
			}
			fmt.Println("Bye!")
			return nil
		case strings.HasPrefix(input, "j "):
			snap, err = jump(ctx, eng, strings.TrimSpace(strings.TrimPrefix(input, "j ")))
		default:
			fmt.Printf("Unknown command %q\n", input)
			continue
		}
		if err != nil {
			if errors.Is(err, domain.ErrNotRunning) {
				break
			}
			return err
		}
	}
	return nil
}

func jump(ctx context.Context, eng *docent.Engine, stepID string) (domain.Snapshot, error) {
	snap, err := eng.JumpTo(ctx, stepID)
	if errors.Is(err, domain.ErrUnknownStep) {
		fmt.Printf("No step %q in this tour.\n", stepID)
		return eng.Snapshot(ctx)
	}
	return snap, err
}
