package chkbitcli

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/chkbit-go/chkbit/pkg/chkbit/engine"
	"github.com/chkbit-go/chkbit/pkg/chkbit/event"
)

// Mode selects how a Renderer presents progress, mirroring the original
// CLI's Progress enum (_examples/original_source/chkbit_cli/main.py).
type Mode int

const (
	// ModeFancy redraws a single status line in place; used when attached
	// to a terminal with neither -q nor --plain given.
	ModeFancy Mode = iota
	// ModePlain prints a running total instead of a redrawn status line,
	// for terminals that can't usefully overwrite lines.
	ModePlain
	// ModeSummary suppresses the progress line but still prints
	// classifications and the final summary; used when stdout isn't a
	// TTY.
	ModeSummary
	// ModeQuiet suppresses everything except damage/error reporting.
	ModeQuiet
)

// statusUpdateInterval throttles status-line redraws, matching the
// original CLI's UPDATE_INTERVAL of 700ms.
const statusUpdateInterval = 700 * time.Millisecond

var (
	okColor    = color.New(color.FgGreen)
	alertColor = color.New(color.FgRed)
)

// Renderer consumes engine events as an engine.Sink Observer, printing
// per-file classifications (filtered by verbosity) and a redrawn status
// line, and finally prints the run summary with the same exit-code
// implications as the original CLI (failures always go through stderr).
type Renderer struct {
	Mode       Mode
	Verbose    bool
	Readonly   bool
	NumWorkers int

	status *StatusLinePrinter
	start  time.Time
	last   time.Time

	total       int
	numNew      int
	numUpd      int
	numIdxUpd   int
	dmgList     []string
	errList     []engine.ErrorEntry
	filesHashed int
	bytesHashed int64
}

// NewRenderer constructs a Renderer in the given mode.
func NewRenderer(mode Mode, verbose, readonly bool, numWorkers int) *Renderer {
	return &Renderer{
		Mode:       mode,
		Verbose:    verbose,
		Readonly:   readonly,
		NumWorkers: numWorkers,
		status:     &StatusLinePrinter{},
		start:      time.Now(),
	}
}

// Observe implements the callback signature expected by engine.Sink.Observer.
func (r *Renderer) Observe(e event.Event) {
	switch e.Kind {
	case event.KindThroughput:
		r.filesHashed += e.FilesDelta
		r.bytesHashed += e.BytesDelta
		r.maybeRedraw()
	case event.KindClassification:
		r.applyClassification(e)
	}
}

func (r *Renderer) applyClassification(e event.Event) {
	switch e.Status {
	case event.StatusUpdateIndex:
		r.numIdxUpd++
		return
	case event.StatusDamage:
		r.total++
		r.dmgList = append(r.dmgList, e.Path)
	case event.StatusInternalException:
		r.errList = append(r.errList, engine.ErrorEntry{Path: e.Path, Message: e.Message})
	case event.StatusOK, event.StatusUpdate, event.StatusNew:
		r.total++
		if e.Status == event.StatusUpdate {
			r.numUpd++
		} else if e.Status == event.StatusNew {
			r.numNew++
		}
	}

	if r.Mode == ModeQuiet {
		return
	}
	if r.Verbose || (e.Status != event.StatusOK && e.Status != event.StatusIgnore) {
		r.status.BreakIfNonEmpty()
		fmt.Printf("%s %s\n", string(e.Status), e.Path)
	}
	r.maybeRedraw()
}

func (r *Renderer) maybeRedraw() {
	if r.Mode == ModeQuiet || r.Mode == ModeSummary {
		return
	}
	now := time.Now()
	if now.Sub(r.last) < statusUpdateInterval {
		return
	}
	r.last = now

	switch r.Mode {
	case ModeFancy:
		mode := "RO"
		if !r.Readonly {
			mode = "RW"
		}
		elapsed := now.Sub(r.start).Seconds()
		var filesPerSec, bytesPerSec float64
		if elapsed > 0 {
			filesPerSec = float64(r.filesHashed) / elapsed
			bytesPerSec = float64(r.bytesHashed) / elapsed
		}
		line := fmt.Sprintf("[%s:%d] %5d files | %.0f files/s | %s/s",
			mode, r.NumWorkers, r.total, filesPerSec, humanize.Bytes(uint64(bytesPerSec)))
		r.status.Print(line)
	case ModePlain:
		fmt.Printf("%d\r", r.total)
	}
}

// Finish clears any in-progress status line. Call once the engine's event
// channel has been fully drained.
func (r *Renderer) Finish() {
	if r.Mode == ModeFancy {
		r.status.Clear()
	}
}

// PrintSummary reproduces the original CLI's print_result: a human count
// of files processed, directory/hash update counts (or a dry-run notice),
// the damaged/error file lists on stderr, and reports whether the run
// should exit nonzero.
func (r *Renderer) PrintSummary(update bool) (exitNonzero bool) {
	if r.Mode != ModeQuiet {
		suffix := ""
		if !update {
			suffix = " in readonly mode"
		}
		okColor.Printf("Processed %s%s.\n", pluralize(r.total, "file"), suffix)

		if r.Mode == ModeFancy && r.total > 0 {
			elapsed := time.Since(r.start)
			elapsedSeconds := elapsed.Seconds()
			fmt.Printf("- %s elapsed\n", elapsed.Round(time.Second))
			fmt.Printf("- %.2f files/second\n", float64(r.filesHashed)/elapsedSeconds)
			fmt.Printf("- %.2f MB/second\n", float64(r.bytesHashed)/1e6/elapsedSeconds)
		}

		if update {
			if r.numIdxUpd > 0 {
				okColor.Printf("- %s updated\n- %s added\n- %s updated\n",
					pluralize2(r.numIdxUpd, "directory was", "directories were"),
					pluralize2(r.numNew, "file hash was", "file hashes were"),
					pluralize2(r.numUpd, "file hash was", "file hashes were"))
			}
		} else if r.numNew+r.numUpd > 0 {
			alertColor.Printf("No changes were made (specify -u to update):\n- %s would have been added and\n- %s would have been updated.\n",
				pluralize(r.numNew, "file"), pluralize(r.numUpd, "file"))
		}
	}

	if len(r.dmgList) > 0 {
		alertColor.Fprintln(os.Stderr, "chkbit detected damage in these files:")
		for _, p := range r.dmgList {
			fmt.Fprintln(os.Stderr, p)
		}
		alertColor.Fprintf(os.Stderr, "error: detected %s with damage!\n", pluralize(len(r.dmgList), "file"))
	}

	if len(r.errList) > 0 {
		alertColor.Fprintln(os.Stderr, "chkbit ran into errors:")
		for _, e := range r.errList {
			fmt.Fprintf(os.Stderr, "%s: %s\n", e.Path, e.Message)
		}
	}

	return len(r.dmgList) > 0 || len(r.errList) > 0
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func pluralize2(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
