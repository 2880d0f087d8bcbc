package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	hackpados "github.com/hack-pad/hackpadfs/os"
	"github.com/spf13/cobra"

	"github.com/latticenotes/lattice/pkg/related"
)

var (
	indexPath    string
	embedVector  string
	similarLimit int
	similarJSON  bool
)

var embedCmd = &cobra.Command{
	Use:   "embed [note-id]",
	Short: "Store a note's embedding vector",
	Long: `Store a note's embedding vector, produced by an external embedding model,
as comma-separated floats. The first stored vector fixes the dimension.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		embedding, err := parseVector(embedVector)
		if err != nil {
			fatal("Error parsing vector", err)
		}

		st := openStore()
		defer st.Close()

		svc := related.NewService(st, openIndex(), slog.Default())
		if err := svc.SetEmbedding(args[0], embedding); err != nil {
			fatal("Error storing embedding", err)
		}
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar [note-id]",
	Short: "List the notes nearest to a note in embedding space",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := related.NewService(st, openIndex(), slog.Default())
		similar, err := svc.SimilarNotes(args[0], similarLimit)
		if err != nil {
			fatal("Error querying similar notes", err)
		}

		if similarJSON {
			printJSON(similar)
			return
		}
		for _, n := range similar {
			fmt.Printf("%s  %s\n", n.ID, n.Title)
		}
	},
}

// openIndex opens the HNSW snapshot next to the database or exits.
func openIndex() *related.Index {
	abs, err := filepath.Abs(indexPath)
	if err != nil {
		fatal("Error resolving index path", err)
	}

	dir, file := filepath.Split(abs)
	fsys, err := hackpados.NewFS().Sub(strings.TrimPrefix(filepath.ToSlash(filepath.Clean(dir)), "/"))
	if err != nil {
		fatal("Error opening index directory", err)
	}

	idx, err := related.NewIndex(fsys, file)
	if err != nil {
		fatal("Error opening index", err)
	}
	return idx
}

// parseVector parses comma-separated floats.
func parseVector(raw string) ([]float32, error) {
	parts := strings.Split(raw, ",")
	vec := make([]float32, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid component %q: %w", p, err)
		}
		vec = append(vec, float32(f))
	}
	return vec, nil
}

func init() {
	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(similarCmd)

	rootCmd.PersistentFlags().StringVar(&indexPath, "index", "lattice.hnsw", "Similarity index snapshot path")
	embedCmd.Flags().StringVar(&embedVector, "vector", "", "Comma-separated embedding components")
	similarCmd.Flags().IntVar(&similarLimit, "limit", 0, "Maximum results (default 5)")
	similarCmd.Flags().BoolVar(&similarJSON, "json", false, "Output in JSON format")
}
