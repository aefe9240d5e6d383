package showmap

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Version is reported in the banner.
const Version = "1.94b"

const (
	cGray    = "\x1b[1;90m"
	cCyan    = "\x1b[0;36m"
	cBrWhite = "\x1b[1;37m"
	cLGreen  = "\x1b[1;32m"
	cLRed    = "\x1b[1;31m"
	cReset   = "\x1b[0m"

	// Leave the alternate charset, reset G1 and show the cursor.
	termRestore = "\x0f\x1b)B\x1b[?25h"
)

// Reporter writes status lines for a showmap run, normally to stderr.
type Reporter struct {
	w     io.Writer
	color bool
}

// NewReporter returns a Reporter that colors its output only if w is a
// terminal.
func NewReporter(w io.Writer) *Reporter {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Reporter{w: w, color: color}
}

// NewPlainReporter returns a Reporter that never emits escape sequences.
func NewPlainReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

func (r *Reporter) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s
}

func (r *Reporter) reset() string {
	if !r.color {
		return ""
	}
	return cReset
}

// Banner prints the tool name and version.
func (r *Reporter) Banner(author string) {
	fmt.Fprintf(r.w, "%s %s%s by %s\n",
		r.paint(cCyan, "afl-showmap"), r.paint(cBrWhite, Version), r.reset(), author)
}

// OutputBegins marks the start of the target's own output.
func (r *Reporter) OutputBegins() {
	fmt.Fprintln(r.w, "-- Program output begins --")
}

// OutputEnds marks the end of the target's own output.
func (r *Reporter) OutputEnds() {
	fmt.Fprintln(r.w, "-- Program output ends --")
}

// Captured reports how many tuples were written to path, or aborts with
// ErrNoInstrumentation when there were none.
func (r *Reporter) Captured(n int, path string) error {
	if n == 0 {
		if r.color {
			fmt.Fprintln(r.w, termRestore)
		}
		fmt.Fprintf(r.w, "%s%s%s\n",
			r.paint(cLRed, "[-] PROGRAM ABORT : "),
			r.paint(cBrWhite, "No instrumentation detected"),
			r.paint(cLRed, ""))
		return ErrNoInstrumentation
	}
	fmt.Fprintf(r.w, "%s%sCaptured %d tuples in '%s'.%s\n",
		r.paint(cLGreen, "[+] "), r.reset(), n, path, r.reset())
	return nil
}

// Note prints an informational line.
func (r *Reporter) Note(format string, args ...any) {
	fmt.Fprintf(r.w, "%s%s%s\n", r.paint(cGray, "[*] "), r.reset(), fmt.Sprintf(format, args...))
}
