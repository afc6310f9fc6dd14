package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// lineKind is the outcome shown in a status line: a reconciliation result
// for sync, or a check result for doctor.
type lineKind int

const (
	lineReady lineKind = iota
	lineAlreadyReady
	linePending
	lineErrored
	lineCheckPassed
	lineCheckFailed
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var lineStyles = map[lineKind]struct {
	badge string
	color string
}{
	lineReady:        {"READY", ansiGreen},
	lineAlreadyReady: {"DONE", ansiBlue},
	linePending:      {"PENDING", ansiYellow},
	lineErrored:      {"ERRORED", ansiRed},
	lineCheckPassed:  {"PASS", ansiGreen},
	lineCheckFailed:  {"FAIL", ansiRed},
}

const (
	lineLabelWidth = 20
	lineBadgeWidth = 7
)

// renderStatusLine formats "  <label>  <BADGE>  <detail>". Only the badge
// is colored so labels and details stay greppable.
func renderStatusLine(label string, kind lineKind, detail string, colorize bool) string {
	style := lineStyles[kind]
	badge := fmt.Sprintf("%-*s", lineBadgeWidth, style.badge)
	if colorize && style.color != "" {
		badge = style.color + badge + ansiReset
	}
	line := fmt.Sprintf("  %-*s %s", lineLabelWidth, label, badge)
	if detail = strings.TrimSpace(detail); detail != "" {
		line += " " + detail
	}
	return strings.TrimRight(line, " ")
}

func renderSectionHeader(title string, colorize bool) []string {
	line := strings.TrimSpace(title)
	rule := strings.Repeat("=", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
