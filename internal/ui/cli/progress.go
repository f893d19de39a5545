package cli

import (
	"fmt"
	"io"
	"time"

	coreapp "xref/internal/core/app"

	"github.com/schollz/progressbar/v3"
)

var phaseLabels = map[string]string{
	coreapp.PhaseLoad: "Reading sources",
	coreapp.PhaseEmit: "Writing pages",
}

// progressReporter draws one bar per file phase of a run. The app calls
// handle serially.
type progressReporter struct {
	out   io.Writer
	quiet bool
	phase string
	done  int
	bar   *progressbar.ProgressBar
}

func newProgressReporter(out io.Writer, quiet bool) *progressReporter {
	return &progressReporter{out: out, quiet: quiet}
}

func (r *progressReporter) handle(p coreapp.Progress) {
	if r.quiet {
		return
	}
	label, ok := phaseLabels[p.Phase]
	if !ok || p.Total == 0 {
		return
	}
	if p.Phase != r.phase {
		r.finish()
		r.phase = p.Phase
		r.bar = progressbar.NewOptions(p.Total,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetDescription(label),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files/s"),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(r.out)
			}),
		)
	}
	// workers report out of order; the bar only moves forward
	if p.Done > r.done {
		r.done = p.Done
		_ = r.bar.Set(p.Done)
	}
}

func (r *progressReporter) finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
	r.phase = ""
	r.done = 0
}
