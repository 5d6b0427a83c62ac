package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"trepro/internal/codec"
	"trepro/internal/config"
	"trepro/internal/faults"
	"trepro/internal/logging"
	"trepro/internal/provenance"
	"trepro/internal/query"
	"trepro/internal/savefig"
)

type listedFile struct {
	Path     string            `json:"path"`
	Title    string            `json:"title"`
	Version  string            `json:"save_version"`
	Size     int64             `json:"size"`
	Metadata map[string]string `json:"metadata"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var where string
	var recursive, asJSON, asTable bool

	cmd := &cobra.Command{
		Use:   "ls <dir>",
		Short: "List framed files, optionally filtered by an expression",
		Long: "List framed files in a directory. --where takes an expr-lang boolean\n" +
			"expression over meta (the flattened metadata), path, version, title, ext,\n" +
			"series and points, for example:\n\n" +
			"  trepro ls plots --where 'meta[\"git-author\"] == \"Ada\" && points > 100'",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			filter, err := query.Compile(where)
			if err != nil {
				return err
			}
			logger, err := ctx.loggerFor(cmd)
			if err != nil {
				return err
			}

			files, err := scanFramedFiles(cmd.Context(), dir, recursive, filter, logger)
			if err != nil {
				return err
			}
			if wantJSON(cmd, asJSON, asTable) {
				return writeJSON(cmd, files)
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No framed files found")
				return nil
			}
			rows := make([][]string, 0, len(files))
			for _, f := range files {
				rows = append(rows, []string{
					f.Path,
					f.Title,
					f.Version,
					shortHash(f.Metadata[provenance.KeyGitHash]),
					strconv.FormatInt(f.Size, 10),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Path", "Title", "Version", "Commit", "Bytes"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "Filter expression (expr-lang)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&asTable, "table", false, "Output a table even when stdout is not a terminal")
	return cmd
}

// scanFramedFiles inspects every regular file under dir and returns the framed
// ones matching filter. Files without a readable frame are skipped.
func scanFramedFiles(ctx context.Context, dir string, recursive bool, filter *query.Filter, logger *slog.Logger) ([]listedFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	files := []listedFile{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		insp, err := savefig.Inspect(ctx, path, logging.NewNop())
		if err != nil {
			if faults.IsLoadFailure(err) {
				if !errors.Is(err, faults.ErrFormat) {
					logger.Debug("skipping unreadable frame", logging.String(logging.FieldPath, path), logging.Error(err))
				}
				return nil
			}
			return err
		}
		ok, err := filter.Match(query.EnvFor(insp))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if !ok {
			return nil
		}
		files = append(files, listedFile{
			Path:     path,
			Title:    insp.Figure.Title,
			Version:  insp.Metadata[codec.KeySaveVersion],
			Size:     insp.Size,
			Metadata: insp.Metadata,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func shortHash(hash string) string {
	if len(hash) > 10 {
		return hash[:10]
	}
	return hash
}
