package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/latticenotes/lattice/pkg/notegraph"
)

var (
	linksJSON      bool
	backlinksJSON  bool
	neighborsDepth int
	neighborsJSON  bool
	unresolvedJSON bool
	orphansJSON    bool
)

var linksCmd = &cobra.Command{
	Use:   "links [note-id]",
	Short: "List a note's outgoing links",
	Long:  `List a note's outgoing links. Unresolved links are marked with ?.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := notegraph.NewService(st, slog.Default())
		links, err := svc.OutgoingLinks(args[0])
		if err != nil {
			fatal("Error listing links", err)
		}

		if linksJSON {
			printJSON(links)
			return
		}
		for _, l := range links {
			marker := "->"
			if !l.Resolved {
				marker = " ?"
			}
			fmt.Printf("%s %s  [%s]\n", marker, l.Title, l.Kind)
		}
	},
}

var backlinksCmd = &cobra.Command{
	Use:   "backlinks [note-id]",
	Short: "List the notes whose bodies link to this one",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := notegraph.NewService(st, slog.Default())
		sources, err := svc.Backlinks(args[0])
		if err != nil {
			fatal("Error listing backlinks", err)
		}

		if backlinksJSON {
			printJSON(sources)
			return
		}
		for _, n := range sources {
			fmt.Printf("%s  %s\n", n.ID, n.Title)
		}
	},
}

var neighborsCmd = &cobra.Command{
	Use:   "neighbors [note-id]",
	Short: "Show the subgraph reachable within --depth hops",
	Long: `Breadth-first traversal from the given note over resolved links in both
directions. Depth 0 returns only the origin; an unknown origin returns an
empty graph.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := notegraph.NewService(st, slog.Default())
		graph, err := svc.Neighbors(args[0], neighborsDepth)
		if err != nil {
			fatal("Error traversing graph", err)
		}

		if neighborsJSON {
			printJSON(graph)
			return
		}
		for _, n := range graph.Nodes {
			fmt.Printf("depth %d  %s  %s\n", n.Depth, n.ID, n.Title)
		}
		for _, e := range graph.Edges {
			fmt.Printf("edge  %s -> %s  [%s]\n", e.SourceID, e.TargetID, e.Kind)
		}
	},
}

var unresolvedCmd = &cobra.Command{
	Use:   "unresolved",
	Short: "List unresolved link targets, most-wanted first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := notegraph.NewService(st, slog.Default())
		groups, err := svc.UnresolvedLinks()
		if err != nil {
			fatal("Error listing unresolved links", err)
		}

		if unresolvedJSON {
			printJSON(groups)
			return
		}
		for _, g := range groups {
			fmt.Printf("%4d  %s  (e.g. from %s)\n", g.Count, g.Title, g.ExampleSourceID)
		}
	},
}

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "List notes with no links in or out",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := notegraph.NewService(st, slog.Default())
		orphans, err := svc.OrphanNotes()
		if err != nil {
			fatal("Error listing orphans", err)
		}

		if orphansJSON {
			printJSON(orphans)
			return
		}
		for _, n := range orphans {
			fmt.Printf("%s  %s\n", n.ID, n.Title)
		}
	},
}

func init() {
	rootCmd.AddCommand(linksCmd)
	rootCmd.AddCommand(backlinksCmd)
	rootCmd.AddCommand(neighborsCmd)
	rootCmd.AddCommand(unresolvedCmd)
	rootCmd.AddCommand(orphansCmd)

	linksCmd.Flags().BoolVar(&linksJSON, "json", false, "Output in JSON format")
	backlinksCmd.Flags().BoolVar(&backlinksJSON, "json", false, "Output in JSON format")
	neighborsCmd.Flags().IntVar(&neighborsDepth, "depth", 1, "Traversal depth (0 = origin only)")
	neighborsCmd.Flags().BoolVar(&neighborsJSON, "json", false, "Output in JSON format")
	unresolvedCmd.Flags().BoolVar(&unresolvedJSON, "json", false, "Output in JSON format")
	orphansCmd.Flags().BoolVar(&orphansJSON, "json", false, "Output in JSON format")
}
