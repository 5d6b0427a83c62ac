package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trepro/internal/config"
	"trepro/internal/logging"
	"trepro/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Catalog framed files as they are written into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
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

			out := cmd.OutOrStdout()
			handler := func(hctx context.Context, path string) {
				recorded, err := store.RecordFile(hctx, path, logger)
				if err != nil {
					logging.WarnWithContext(logger, "failed to catalog file", "watch_record_failed",
						logging.String(logging.FieldPath, path),
						logging.Error(err),
						logging.String(logging.FieldImpact, "file is missing from the catalog"),
						logging.String(logging.FieldErrorHint, "run trepro catalog rebuild"),
					)
					return
				}
				if recorded {
					fmt.Fprintf(out, "Cataloged %s\n", path)
				}
			}

			w, err := watch.New(dir, handler, watch.Options{
				Debounce:   debounce,
				Extensions: cfg.Save.EmbedExtensions,
				Logger:     logger,
			})
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "How long a file must stay unchanged before it is read")
	return cmd
}
