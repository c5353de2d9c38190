package op

import (
	"math"
	"testing"
)

func TestSummarizeEmpty(t *testing.T) {
	r := NewRegistry()
	s := r.Summarize()
	if s.Active {
		t.Fatal("empty registry must not report an active summary")
	}
	if s.Fraction != 0 {
		t.Errorf("empty summary fraction: %v", s.Fraction)
	}
}

func TestSummarizeAveragesFinishedAsComplete(t *testing.T) {
	r := NewRegistry()

	// One running op at 50%, one already finished.
	ctl := NewController()
	ctl.SetProgress(0.5)
	ctl.SetState("Copying a.txt")
	r.pending[1] = &entry{op: NewEmptyTrash(), ctl: ctl}
	r.showProgress[1] = struct{}{}
	r.completed[2] = CompletedOp{ID: 2, Desc: "done"}
	r.showProgress[2] = struct{}{}

	s := r.Summarize()
	if !s.Active {
		t.Fatal("summary should be active")
	}
	if s.Running != 1 || s.Finished != 1 {
		t.Errorf("counts: running=%d finished=%d", s.Running, s.Finished)
	}
	if math.Abs(s.Fraction-0.75) > 1e-9 {
		t.Errorf("fraction: expected 0.75, got %v", s.Fraction)
	}
	if s.Text == "" {
		t.Error("multi-op summary has no text")
	}
}

func TestSummarizeSingleRunningUsesStateText(t *testing.T) {
	r := NewRegistry()
	ctl := NewController()
	ctl.SetProgress(0.25)
	ctl.SetState("Copying big.iso (250 MB of 1.0 GB)")
	r.pending[1] = &entry{op: NewEmptyTrash(), ctl: ctl}
	r.showProgress[1] = struct{}{}

	s := r.Summarize()
	if s.Text != "Copying big.iso (250 MB of 1.0 GB)" {
		t.Errorf("single-op text: %q", s.Text)
	}
	if s.Fraction != 0.25 {
		t.Errorf("fraction: %v", s.Fraction)
	}
}

func TestClearFinishedKeepsRunning(t *testing.T) {
	r := NewRegistry()
	ctl := NewController()
	r.pending[1] = &entry{op: NewEmptyTrash(), ctl: ctl}
	r.showProgress[1] = struct{}{}
	r.completed[2] = CompletedOp{ID: 2}
	r.showProgress[2] = struct{}{}

	r.ClearFinished()

	s := r.Summarize()
	if !s.Active {
		t.Fatal("running op dropped from the display")
	}
	if s.Finished != 0 {
		t.Errorf("finished op still displayed: %+v", s)
	}
	if s.Running != 1 {
		t.Errorf("running count: %d", s.Running)
	}
}
