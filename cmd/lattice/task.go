package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/latticenotes/lattice/pkg/relations"
)

var (
	taskDescription string
	relateKind      string
	taskNotesJSON   bool
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks and their note relations",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Register a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := relations.NewService(st, slog.Default())
		task, err := svc.RegisterTask(args[0], taskDescription)
		if err != nil {
			fatal("Error registering task", err)
		}
		fmt.Println(task.ID)
	},
}

var taskNotesCmd = &cobra.Command{
	Use:   "notes [task-id]",
	Short: "List the notes related to a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := relations.NewService(st, slog.Default())
		related, err := svc.RelatedNotes(args[0])
		if err != nil {
			fatal("Error listing related notes", err)
		}

		if taskNotesJSON {
			printJSON(related)
			return
		}
		for _, n := range related {
			fmt.Printf("%s  %s\n", n.ID, n.Title)
		}
	},
}

var relateCmd = &cobra.Command{
	Use:   "relate [task-id] [note-id]",
	Short: "Relate a task to a note",
	Long:  `Relate a task to a note. Kinds: reference, spec, meeting, evidence, derived.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := relations.NewService(st, slog.Default())
		rel, err := svc.CreateRelation(args[0], args[1], relateKind)
		if err != nil {
			fatal("Error creating relation", err)
		}
		fmt.Println(rel.ID)
	},
}

func init() {
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(relateCmd)
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskNotesCmd)

	taskAddCmd.Flags().StringVar(&taskDescription, "description", "", "Task description")
	taskNotesCmd.Flags().BoolVar(&taskNotesJSON, "json", false, "Output in JSON format")
	relateCmd.Flags().StringVar(&relateKind, "kind", "reference", "Relation kind")
}
