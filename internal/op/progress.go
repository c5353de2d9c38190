package op

import "fmt"

// Summary is the UI-facing combination of every operation still flagged for
// progress display. When Active is false the progress surface is suppressed
// entirely; this also guards the empty-set division.
type Summary struct {
	Active   bool
	Running  int
	Finished int
	Fraction float64 // average over tracked ops, finished ones counted as 1.0
	Text     string
}

// Summarize combines per-operation progress into one status line. Finished
// operations count as 1.0 so the bar never regresses as operations complete.
func (r *Registry) Summarize() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.showProgress) == 0 {
		return Summary{}
	}

	var total float64
	var running, finished int
	var singleState string
	for id := range r.showProgress {
		if e, ok := r.pending[id]; ok {
			total += e.ctl.Progress()
			running++
			singleState = e.ctl.State()
		} else {
			total += 1
			finished++
		}
	}

	s := Summary{
		Active:   true,
		Running:  running,
		Finished: finished,
		Fraction: total / float64(len(r.showProgress)),
	}
	if running == 1 && finished == 0 {
		s.Text = singleState
	} else {
		s.Text = fmt.Sprintf("%d running, %d finished, %.0f%% complete", running, finished, s.Fraction*100)
	}
	return s
}
