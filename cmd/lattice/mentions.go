package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/latticenotes/lattice/pkg/mentions"
	"github.com/latticenotes/lattice/pkg/suggest"
)

var (
	mentionsJSON bool
	suggestLimit int
	suggestJSON  bool
)

var mentionsCmd = &cobra.Command{
	Use:   "mentions [note-id]",
	Short: "Find unlinked mentions of other notes' titles",
	Long: `Scan a note's body for occurrences of other notes' titles that are not
already wrapped in a wikilink. Matching is case-insensitive, whole-word,
leftmost-longest.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := mentions.NewService(st, slog.Default())
		found, err := svc.UnlinkedMentions(args[0])
		if err != nil {
			fatal("Error scanning mentions", err)
		}

		if mentionsJSON {
			printJSON(found)
			return
		}
		for _, m := range found {
			fmt.Printf("%5d-%-5d  %q -> %s (%s)\n", m.Start, m.End, m.Text, m.Title, m.NoteID)
		}
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [input]",
	Short: "Suggest link targets for a partially typed title",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := suggest.NewService(st, slog.Default())
		suggestions, err := svc.SuggestTitles(args[0], suggestLimit)
		if err != nil {
			fatal("Error suggesting titles", err)
		}

		if suggestJSON {
			printJSON(suggestions)
			return
		}
		for _, s := range suggestions {
			fmt.Printf("%s  %s\n", s.NoteID, s.Title)
		}
	},
}

func init() {
	rootCmd.AddCommand(mentionsCmd)
	rootCmd.AddCommand(suggestCmd)

	mentionsCmd.Flags().BoolVar(&mentionsJSON, "json", false, "Output in JSON format")
	suggestCmd.Flags().IntVar(&suggestLimit, "limit", 0, "Maximum suggestions (default 10)")
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "Output in JSON format")
}
