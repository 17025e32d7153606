// Package chkbitcli implements chkbit's terminal rendering: a live,
// carriage-return-overwritten status line while an engine run is in
// progress, and the final per-file and summary output once it completes.
//
// It is grounded on the teacher's cmd.StatusLinePrinter
// (cmd/output.go, cmd/output_posix.go) for the status-line mechanics, and
// on the original chkbit Python CLI's Main class
// (_examples/original_source/chkbit_cli/main.py) for what gets printed,
// when, and under which of -v/-q/--plain.
package chkbitcli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// statusLineFormat truncates and right-pads printed content to 80
// characters, so a carriage return fully overwrites whatever was printed
// before it regardless of the new message's length.
const statusLineFormat = "\r%-80.80s"

// StatusLinePrinter prints a dynamically updating status line. Color
// escape sequences in the message are honored.
type StatusLinePrinter struct {
	// UseStandardError routes output to stderr instead of stdout.
	UseStandardError bool

	nonEmpty bool
}

func (p *StatusLinePrinter) output() io.Writer {
	if p.UseStandardError {
		return color.Error
	}
	return color.Output
}

// Print overwrites the status line with message.
func (p *StatusLinePrinter) Print(message string) {
	fmt.Fprintf(p.output(), statusLineFormat, message)
	p.nonEmpty = true
}

// Clear wipes the status line and returns the cursor to its start.
func (p *StatusLinePrinter) Clear() {
	p.Print("")
	fmt.Fprint(p.output(), "\r")
	p.nonEmpty = false
}

// BreakIfNonEmpty emits a newline if the status line currently holds
// content, so subsequent line-oriented output doesn't collide with it.
func (p *StatusLinePrinter) BreakIfNonEmpty() {
	if p.nonEmpty {
		fmt.Fprintln(p.output())
		p.nonEmpty = false
	}
}
