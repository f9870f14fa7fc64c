// Package interactive provides yes/no prompts for terminal sessions.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	out     io.Writer
	scanner *bufio.Scanner
}

// NewPrompter creates a prompter with custom input/output.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		out:     out,
		scanner: bufio.NewScanner(in),
	}
}

// IsTerminal reports whether r is a terminal (TTY).
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Confirm asks a yes/no question. An empty answer picks def; end of input
// and unrecognized answers are treated as no.
func (p *Prompter) Confirm(def bool, format string, args ...any) bool {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	_, _ = fmt.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprintf(p.out, " %s ", hint)

	if !p.scanner.Scan() {
		_, _ = fmt.Fprintln(p.out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(p.scanner.Text())) {
	case "":
		return def
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		_, _ = fmt.Fprintln(p.out, "Invalid response, assuming no.")
		return false
	}
}
