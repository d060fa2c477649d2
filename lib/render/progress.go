package render

import (
	"fmt"
	"io"
	"sitetester-cli/lib/audit"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// LiveProgress drives a single go-pretty progress tracker off poll
// observations. The tracker appears on the first observation so a
// still-initializing session (total 0) doesn't flash an empty bar.
type LiveProgress struct {
	message string
	pw      progress.Writer
	tracker *progress.Tracker
}

func NewLiveProgress(out io.Writer, message string) *LiveProgress {
	pw := progress.NewWriter()
	pw.SetOutputWriter(out)
	pw.SetUpdateFrequency(time.Millisecond * 100)
	pw.SetTrackerLength(25)
	pw.SetTrackerPosition(progress.PositionRight)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = false
	pw.Style().Visibility.Speed = false
	go pw.Render()
	return &LiveProgress{
		message: message,
		pw:      pw,
	}
}

func (p *LiveProgress) Observe(prog audit.Progress) {
	if prog.Total <= 0 {
		return
	}
	if p.tracker == nil {
		p.tracker = &progress.Tracker{
			Message: p.message,
			Total:   int64(prog.Total),
		}
		p.pw.AppendTracker(p.tracker)
	}
	if p.tracker.Total != int64(prog.Total) {
		p.tracker.UpdateTotal(int64(prog.Total))
	}
	p.tracker.UpdateMessage(fmt.Sprintf("%s %d/%d", p.message, prog.Completed, prog.Total))
	p.tracker.SetValue(int64(prog.Completed))
}

// Finish resolves the tracker and blocks until the writer has drawn its
// final frame, so later prints don't interleave with the bar.
func (p *LiveProgress) Finish(status audit.Status) {
	if p.tracker != nil {
		if status == audit.StatusCompleted {
			p.tracker.MarkAsDone()
		} else {
			p.tracker.MarkAsErrored()
		}
	}
	p.pw.Stop()
	for p.pw.IsRenderInProgress() {
		time.Sleep(time.Millisecond * 5)
	}
}
