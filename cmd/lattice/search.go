package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/latticenotes/lattice/pkg/search"
)

var (
	searchTypes   []string
	searchRelated bool
	searchLimit   int
	searchOffset  int
	searchQuick   bool
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search notes and tasks",
	Long: `Case-insensitive substring search over titles and bodies. Title matches
rank above body matches; notes rank above tasks on ties. --quick caps the
result list at 10 and skips related-entity annotation.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := search.NewService(st, slog.Default())

		var results []search.Result
		var err error
		if searchQuick {
			results, err = svc.QuickSearch(args[0])
		} else {
			results, err = svc.Search(args[0], search.Options{
				Limit:          searchLimit,
				Offset:         searchOffset,
				Types:          searchTypes,
				IncludeRelated: searchRelated,
			})
		}
		if err != nil {
			fatal("Error searching", err)
		}

		if searchJSON {
			printJSON(results)
			return
		}
		for _, r := range results {
			fmt.Printf("%3d  %-4s  %s  %s\n", r.Score, r.Type, r.ID, r.Title)
			if r.Snippet != r.Title {
				fmt.Printf("           %s\n", r.Snippet)
			}
			if len(r.RelatedIDs) > 0 {
				fmt.Printf("           related: %s\n", strings.Join(r.RelatedIDs, ", "))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringSliceVar(&searchTypes, "types", nil, "Restrict to entity types (note, task)")
	searchCmd.Flags().BoolVar(&searchRelated, "related", false, "Annotate results with related entity ids")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum results per page (default 20)")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "Results to skip")
	searchCmd.Flags().BoolVar(&searchQuick, "quick", false, "Quick mode: top 10, no annotations")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output in JSON format")
}
