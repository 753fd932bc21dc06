package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docentlabs/docent/internal/logging"
	"github.com/docentlabs/docent/pkg/adapters/bboltstore"
	"github.com/docentlabs/docent/pkg/adapters/loam"
	"github.com/docentlabs/docent/pkg/adapters/memory"
	"github.com/docentlabs/docent/pkg/adapters/redis"
	"github.com/docentlabs/docent/pkg/catalog"
	"github.com/docentlabs/docent/pkg/persistence/middleware"
	"github.com/docentlabs/docent/pkg/ports"
)

var rootCmd = &cobra.Command{
	Use:   "docent",
	Short: "Docent is a guided product tour engine",
	Long:  `Docent runs guided product tours: it resolves step targets, places tooltips, and remembers which tours a user has seen.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("tours", ".", "Directory containing the tour definitions")
	rootCmd.PersistentFlags().String("source", "loam", "Catalog source backend: 'loam' or 'yaml'")
	rootCmd.PersistentFlags().String("store", "memory", "Record store backend: 'memory', 'redis' or 'bolt'")
	rootCmd.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address (store=redis)")
	rootCmd.PersistentFlags().Int("redis-db", 0, "Redis database number (store=redis)")
	rootCmd.PersistentFlags().String("bolt-path", "docent.db", "Database file path (store=bolt)")
	rootCmd.PersistentFlags().String("namespace", "", "Record namespace, for multi-tenant stores")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	levelName, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = slog.LevelWarn
	}
	return logging.New(level)
}

// newSource builds the catalog source selected by the persistent flags.
func newSource(cmd *cobra.Command, logger *slog.Logger) (ports.CatalogSource, error) {
	dir, _ := cmd.Flags().GetString("tours")
	backend, _ := cmd.Flags().GetString("source")

	switch backend {
	case "loam":
		return loam.Open(dir)
	case "yaml":
		return catalog.NewFileSource(dir, catalog.WithFileLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown source backend %q: want loam or yaml", backend)
	}
}

// newStore builds the record store selected by the persistent flags.
// The returned close function is a no-op for backends without state.
func newStore(cmd *cobra.Command) (ports.RecordStore, func() error, error) {
	backend, _ := cmd.Flags().GetString("store")
	namespace, _ := cmd.Flags().GetString("namespace")

	var store ports.RecordStore
	closeFn := func() error { return nil }

	switch backend {
	case "memory":
		store = memory.NewStore()
	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		db, _ := cmd.Flags().GetInt("redis-db")
		rdb := redis.New(addr, "", db)
		store = rdb
		closeFn = rdb.Close
	case "bolt":
		path, _ := cmd.Flags().GetString("bolt-path")
		bdb, err := bboltstore.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt store: %w", err)
		}
		store = bdb
		closeFn = bdb.Close
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q: want memory, redis or bolt", backend)
	}

	if namespace != "" {
		store = middleware.Chain(store, middleware.NewNamespaceMiddleware(namespace))
	}
	return store, closeFn, nil
}
