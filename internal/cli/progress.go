package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/qsearch/qsearch/internal/indexer"
)

var phaseLabels = map[string]string{
	"scan":   "Scanning",
	"index":  "Indexing files",
	"remove": "Removing files",
}

// progressRenderer turns indexer events into progress bars, one bar per
// phase. The indexer delivers events from a single goroutine so no locking
// is needed.
type progressRenderer struct {
	quiet bool
	phase string
	bar   *progressbar.ProgressBar
}

func newProgressRenderer(quiet bool) *progressRenderer {
	return &progressRenderer{quiet: quiet}
}

func (p *progressRenderer) handle(ev indexer.Event) {
	if p.quiet || ev.Total == 0 {
		return
	}

	if p.bar == nil || p.phase != ev.Phase {
		p.finish()
		p.phase = ev.Phase

		label := phaseLabels[ev.Phase]
		if label == "" {
			label = ev.Phase
		}
		p.bar = progressbar.NewOptions(ev.Total,
			progressbar.OptionSetDescription(label),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
		)
	}

	_ = p.bar.Set(ev.Done)
}

// finish closes out the current bar, if any. Safe to call repeatedly.
func (p *progressRenderer) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	fmt.Println()
	p.bar = nil
}
