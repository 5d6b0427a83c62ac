package provenance

import (
	"bytes"
	"fmt"

	"github.com/sourcegraph/go-diff/diff"
)

// Stat summarizes a unified diff.
type Stat struct {
	Files   int
	Added   int
	Removed int
}

func (s Stat) String() string {
	return fmt.Sprintf("%d files, +%d -%d", s.Files, s.Added, s.Removed)
}

// DiffStat parses a git diff and counts changed files and lines.
func DiffStat(raw []byte) (Stat, error) {
	files, err := diff.ParseMultiFileDiff(raw)
	if err != nil {
		return Stat{}, fmt.Errorf("parse diff: %w", err)
	}
	var stat Stat
	for _, file := range files {
		stat.Files++
		for _, hunk := range file.Hunks {
			for _, line := range bytes.Split(hunk.Body, []byte("\n")) {
				switch {
				case bytes.HasPrefix(line, []byte("+")):
					stat.Added++
				case bytes.HasPrefix(line, []byte("-")):
					stat.Removed++
				}
			}
		}
	}
	return stat, nil
}
