package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/latticenotes/lattice/internal/store"
)

var (
	dbPath  string
	creator string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lattice",
	Short: "A wikilink-aware personal knowledge base",
	Long: `Lattice stores notes as linked records. Wikilinks ([[Target Title]]) in a
note's body are extracted on every write and resolved against the other
notes' titles, building a graph you can traverse, search and import into.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "lattice.db", "SQLite database path (\":memory:\" for ephemeral)")
	rootCmd.PersistentFlags().StringVar(&creator, "creator", "cli", "Creator recorded on new notes")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// openStore opens the configured database or exits.
func openStore() store.Storer {
	st, err := store.NewSQLiteStoreWithDSN(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	return st
}

// printJSON writes v to stdout as indented JSON or exits.
func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
