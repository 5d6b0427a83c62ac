package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"trepro/internal/catalog"
	"trepro/internal/config"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the SQLite catalog of framed files",
	}

	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogRebuildCommand(ctx))
	catalogCmd.AddCommand(newCatalogForgetCommand(ctx))

	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var commit string
	var asJSON, asTable bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cataloged files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.catalogStore()
			if err != nil {
				return err
			}
			var entries []*catalog.Entry
			if prefix := strings.TrimSpace(commit); prefix != "" {
				entries, err = store.FindByCommit(cmd.Context(), prefix)
			} else {
				entries, err = store.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			if wantJSON(cmd, asJSON, asTable) {
				if entries == nil {
					entries = []*catalog.Entry{}
				}
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Catalog is empty")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.Path,
					entry.Title,
					entry.SaveVersion,
					shortHash(entry.GitHash),
					strconv.FormatInt(entry.FileBytes, 10),
					entry.RecordedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Path", "Title", "Version", "Commit", "Bytes", "Recorded"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&commit, "commit", "", "Only list files saved at commits starting with this prefix")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&asTable, "table", false, "Output a table even when stdout is not a terminal")
	return cmd
}

func newCatalogRebuildCommand(ctx *commandContext) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "rebuild <dir>",
		Short: "Rescan a directory and sync its framed files into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			logger, err := ctx.loggerFor(cmd)
			if err != nil {
				return err
			}
			store, err := ctx.catalogStore()
			if err != nil {
				return err
			}
			result, err := store.Rebuild(cmd.Context(), dir, catalog.RebuildOptions{Recursive: recursive, Logger: logger})
			if errors.Is(err, catalog.ErrRebuildInProgress) {
				return fmt.Errorf("%w; try again once the other rebuild finishes", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d files: %d recorded, %d skipped, %d removed\n",
				result.Scanned, result.Recorded, result.Skipped, result.Removed)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	return cmd
}

func newCatalogForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <path>",
		Short: "Remove a file from the catalog (the file itself is untouched)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			store, err := ctx.catalogStore()
			if err != nil {
				return err
			}
			removed, err := store.Forget(cmd.Context(), path)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%s is not in the catalog", path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s\n", path)
			return nil
		},
	}
}
