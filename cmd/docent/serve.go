package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docentlabs/docent"
	"github.com/docentlabs/docent/pkg/adapters/httpapi"
	"github.com/docentlabs/docent/pkg/adapters/snapshot"
	"github.com/docentlabs/docent/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Starts the docent engine in server mode, exposing the tour API over HTTP with an embedded OpenAPI document at /openapi.yaml.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("snapshot", "", "UI snapshot file to resolve targets against (required)")
	_ = serveCmd.MarkFlagRequired("snapshot")
}

func runServe(cmd *cobra.Command) error {
	logger := newLogger(cmd)
	port, _ := cmd.Flags().GetString("port")

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

	metrics := observability.NewMetrics()
	eng, err := docent.New(surface, "",
		docent.WithSource(source),
		docent.WithRecordStore(store),
		docent.WithLogger(logger),
		docent.WithHooks(metrics.Hooks()),
	)
	if err != nil {
		return err
	}

	handler, err := httpapi.NewHandler(eng.Manager(), eng.Catalog(),
		httpapi.WithRecordStore(store),
		httpapi.WithMetricsHandler(metrics.Handler()),
		httpapi.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		fmt.Printf("Starting Docent Server on %s\n", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt or terminate signals.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not kill server: %w", err)
			}
		}
		fmt.Println("Docent Server stopped gracefully")
		return nil
	}
}
