package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

// checkState is the verdict doctor prints in front of each line.
type checkState int

const (
	stateNote checkState = iota
	statePass
	stateDegraded
	stateFail
)

const (
	checkLabelWidth = 20
	stateWidth      = 8
	reportIndent    = "  "
)

func (s checkState) String() string {
	switch s {
	case statePass:
		return "pass"
	case stateDegraded:
		return "degraded"
	case stateFail:
		return "fail"
	default:
		return "note"
	}
}

func (s checkState) colors() text.Colors {
	switch s {
	case statePass:
		return text.Colors{text.FgGreen}
	case stateDegraded:
		return text.Colors{text.FgYellow}
	case stateFail:
		return text.Colors{text.FgRed, text.Bold}
	default:
		return text.Colors{text.FgHiBlack}
	}
}

// formatCheck renders "  <state> <label> <detail>". Only the state column is
// colored so labels stay aligned.
func formatCheck(label string, state checkState, detail string, colorize bool) string {
	stateText := fmt.Sprintf("%-*s", stateWidth, state)
	if colorize {
		stateText = state.colors().Sprint(stateText)
	}
	line := fmt.Sprintf("%s%s %-*s %s", reportIndent, stateText, checkLabelWidth, label, strings.TrimSpace(detail))
	return strings.TrimRight(line, " ")
}

func formatSection(title string, colorize bool) string {
	title = strings.TrimSpace(title)
	if colorize {
		return text.Colors{text.Bold}.Sprint(title)
	}
	return title
}

func shouldColorize(writer io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isTerminal(writer)
}
