package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	hackpados "github.com/hack-pad/hackpadfs/os"
	"github.com/spf13/cobra"

	"github.com/latticenotes/lattice/pkg/notes"
	"github.com/latticenotes/lattice/pkg/vault"
)

var (
	importWatch  bool
	importIgnore []string
)

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Import a directory of markdown files",
	Long: `Walk a directory tree and upsert every .md file as a note. Frontmatter
title/folder keys override the first H1 and the file stem; leftover
frontmatter becomes the note's metadata. With --watch, keeps running and
re-imports files as they change until interrupted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			fatal("Error resolving vault path", err)
		}

		vaultFS, err := hackpados.NewFS().Sub(strings.TrimPrefix(filepath.ToSlash(dir), "/"))
		if err != nil {
			fatal("Error opening vault directory", err)
		}

		st := openStore()
		defer st.Close()

		svc := notes.NewService(st, slog.Default())
		imp := vault.New(vaultFS, svc, vault.Options{
			Ignore:    importIgnore,
			CreatedBy: creator,
		}, slog.Default())

		report, err := imp.Import()
		if err != nil {
			fatal("Error importing vault", err)
		}
		fmt.Printf("created %d, updated %d, skipped %d\n", report.Created, report.Updated, report.Skipped)

		if !importWatch {
			return
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := imp.Watch(ctx, dir); err != nil {
			fatal("Error watching vault", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importWatch, "watch", false, "Keep watching the directory for changes")
	importCmd.Flags().StringSliceVar(&importIgnore, "ignore", nil, "Glob patterns to skip (doublestar, e.g. drafts/**)")
}
