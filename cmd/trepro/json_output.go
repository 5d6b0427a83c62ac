package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// wantJSON picks the output mode: explicit flags win, otherwise JSON is used
// when stdout is not a terminal.
func wantJSON(cmd *cobra.Command, jsonFlag, tableFlag bool) bool {
	switch {
	case jsonFlag:
		return true
	case tableFlag:
		return false
	default:
		return !isTerminal(cmd.OutOrStdout())
	}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
