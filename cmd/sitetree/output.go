package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// wantJSON is true when --json was given or stdout is not a terminal.
func wantJSON(cmd *cobra.Command, flag bool) bool {
	return flag || !isTerminal(cmd.OutOrStdout())
}

// sectionLabel turns a path segment like "machine-learning" into "Machine Learning".
func sectionLabel(segment string) string {
	return cases.Title(language.Und).String(strings.NewReplacer("-", " ", "_", " ").Replace(segment))
}
