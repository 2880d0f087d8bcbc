package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/latticenotes/lattice/internal/store"
	"github.com/latticenotes/lattice/pkg/notes"
)

var (
	createBody   string
	createFolder string
	showJSON     bool
	listFolder   string
	listLimit    int
	listOffset   int
	listJSON     bool
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes",
}

var noteCreateCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a note",
	Long:  `Create a note with the given title. Wikilinks in the body are extracted and resolved immediately.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := notes.NewService(st, slog.Default())
		note, err := svc.CreateNote(notes.CreateParams{
			Title:      args[0],
			Body:       createBody,
			FolderPath: createFolder,
			CreatedBy:  creator,
		})
		if err != nil {
			fatal("Error creating note", err)
		}
		fmt.Println(note.ID)
	},
}

var noteShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := notes.NewService(st, slog.Default())
		note, err := svc.GetNote(args[0])
		if err != nil {
			fatal("Error reading note", err)
		}
		if note == nil {
			fatal("Error reading note", fmt.Errorf("no note with id %s", args[0]))
		}

		if showJSON {
			printJSON(note)
			return
		}
		fmt.Printf("%s\n\n%s\n", note.Title, note.Body)
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, most recently updated first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := notes.NewService(st, slog.Default())
		list, err := svc.ListNotes(store.NoteFilter{
			FolderPath: listFolder,
			Limit:      listLimit,
			Offset:     listOffset,
		})
		if err != nil {
			fatal("Error listing notes", err)
		}

		if listJSON {
			printJSON(list)
			return
		}
		for _, n := range list {
			fmt.Printf("%s  %s\n", n.ID, n.Title)
		}
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note",
	Long:  `Delete a note. Links pointing at it survive as unresolved links carrying the deleted title.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		svc := notes.NewService(st, slog.Default())
		if err := svc.DeleteNote(args[0]); err != nil {
			fatal("Error deleting note", err)
		}
		fmt.Printf("Deleted note %s\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteCreateCmd)
	noteCmd.AddCommand(noteShowCmd)
	noteCmd.AddCommand(noteListCmd)
	noteCmd.AddCommand(noteDeleteCmd)

	noteCreateCmd.Flags().StringVar(&createBody, "body", "", "Note body (markdown with [[wikilinks]])")
	noteCreateCmd.Flags().StringVar(&createFolder, "folder", "", "Folder path")
	noteShowCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
	noteListCmd.Flags().StringVar(&listFolder, "folder", "", "Filter by folder path")
	noteListCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum notes to return (0 = default 100)")
	noteListCmd.Flags().IntVar(&listOffset, "offset", 0, "Notes to skip")
	noteListCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
