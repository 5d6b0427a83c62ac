package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trepro/internal/config"
	"trepro/internal/deps"
	"trepro/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check git availability and directory access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := []string{formatSection("Embedding", colorize)}
			lines = append(lines, embeddingLines(cfg, colorize)...)

			lines = append(lines, "", formatSection("Tools", colorize))
			statuses := preflight.CheckSystemDeps(cfg)
			if len(statuses) == 0 {
				lines = append(lines, formatCheck("git", stateNote, "provenance disabled", colorize))
			}
			lines = append(lines, dependencyLines(statuses, colorize)...)

			lines = append(lines, "", formatSection("Checks", colorize))
			failed := 0
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				state := statePass
				if !result.Passed {
					// Without git, saves still embed; only provenance shrinks.
					state = stateFail
					if result.Name == preflight.GitCheckName {
						state = stateDegraded
					} else {
						failed++
					}
				}
				lines = append(lines, formatCheck(result.Name, state, result.Detail, colorize))
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if failed > 0 {
				return fmt.Errorf("doctor: %d check(s) failed", failed)
			}
			return nil
		},
	}
}

func embeddingLines(cfg *config.Config, colorize bool) []string {
	extensions := "none (every save is plain)"
	if len(cfg.Save.EmbedExtensions) > 0 {
		extensions = strings.Join(cfg.Save.EmbedExtensions, ", ")
	}
	return []string{
		formatCheck("extensions", stateNote, extensions, colorize),
		formatCheck("trailer", stateNote, onOff(cfg.Save.Trailer), colorize),
		formatCheck("provenance", stateNote, onOff(cfg.Provenance.Enabled), colorize),
		formatCheck("git diff", stateNote, onOff(cfg.Provenance.Enabled && cfg.Provenance.IncludeDiff), colorize),
	}
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses))
	for _, dep := range statuses {
		if dep.Available {
			lines = append(lines, formatCheck(dep.Name, statePass, dep.Command, colorize))
			continue
		}

		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		state := stateFail
		if dep.Optional {
			state = stateDegraded
			detail += " (optional)"
		}
		lines = append(lines, formatCheck(dep.Name, state, detail, colorize))
	}
	return lines
}
