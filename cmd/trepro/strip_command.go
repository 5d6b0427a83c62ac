package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"trepro/internal/config"
	"trepro/internal/fileutil"
	"trepro/internal/frame"
	"trepro/internal/logging"
)

func newStripCommand(ctx *commandContext) *cobra.Command {
	var output string
	var backup bool

	cmd := &cobra.Command{
		Use:   "strip <file>",
		Short: "Remove the metadata frame, leaving the plain payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			payload, err := frame.Strip(data)
			if err != nil {
				return fmt.Errorf("strip %s: %w", path, err)
			}

			target := strings.TrimSpace(output)
			if target == "" {
				target = path
				if backup {
					if err := fileutil.CopyFileVerified(path, path+".bak"); err != nil {
						return fmt.Errorf("back up %s: %w", path, err)
					}
				}
			}
			if err := fileutil.WriteFileAtomic(target, payload, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", target, err)
			}

			if target == path {
				forgetStripped(cmd, ctx, path)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d-byte metadata frame; wrote %d bytes to %s\n", len(data)-len(payload), len(payload), target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the stripped file here instead of replacing the input")
	cmd.Flags().BoolVar(&backup, "backup", false, "Keep a verified copy of the input as <file>.bak before replacing it")
	return cmd
}

// forgetStripped drops the catalog entry of a file that no longer has a frame.
func forgetStripped(cmd *cobra.Command, ctx *commandContext, path string) {
	cfg, err := ctx.ensureConfig()
	if err != nil || !cfg.Catalog.Enabled {
		return
	}
	logger, err := ctx.loggerFor(cmd)
	if err != nil {
		return
	}
	store, err := ctx.catalogStore()
	if err == nil {
		_, err = store.Forget(cmd.Context(), path)
	}
	if err != nil {
		logging.WarnWithContext(logger, "failed to drop catalog entry", "catalog_forget_failed",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "catalog still lists the stripped file"),
			logging.String(logging.FieldErrorHint, "run trepro catalog forget"),
		)
	}
}
