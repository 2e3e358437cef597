package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/crewworks/backend/internal/models"
)

var day = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

func at(h, m, s int) time.Time {
	return time.Date(2025, 1, 10, h, m, s, 0, time.UTC)
}

func TestAssignedBucketAccumulates(t *testing.T) {
	tk := New("t1", "j1", "e1", day, at(9, 0, 0))
	if _, err := RecordTransition(tk, models.StatusAssigned, at(9, 0, 0)); err != nil {
		t.Fatalf("assign: %v", err)
	}
	delta, err := RecordTransition(tk, models.StatusInProgress, at(9, 20, 0))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if delta.Bucket != models.StatusAssigned || delta.Elapsed != 20*time.Minute {
		t.Fatalf("expected 20m ASSIGNED delta, got %+v", delta)
	}
	if tk.Assigned != 20*time.Minute {
		t.Fatalf("expected assigned=20m, got %s", tk.Assigned)
	}
}

func TestPendingTimeNotTracked(t *testing.T) {
	tk := New("t1", "j1", "e1", day, at(8, 0, 0))
	delta, err := RecordTransition(tk, models.StatusAssigned, at(9, 0, 0))
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if delta.Bucket != "" || delta.Elapsed != 0 {
		t.Fatalf("expected empty delta for PENDING interval, got %+v", delta)
	}
	if tk.Assigned != 0 || tk.InProgress != 0 || tk.OnHold != 0 {
		t.Fatalf("expected zero accumulators, got %+v", tk)
	}
}

func TestSameStatusRejected(t *testing.T) {
	tk := New("t1", "j1", "e1", day, at(9, 0, 0))
	if _, err := RecordTransition(tk, models.StatusAssigned, at(9, 0, 0)); err != nil {
		t.Fatalf("assign: %v", err)
	}
	_, err := RecordTransition(tk, models.StatusAssigned, at(9, 5, 0))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestTerminalStatesReject(t *testing.T) {
	for _, term := range []models.Status{models.StatusCompleted, models.StatusCancelled} {
		tk := New("t1", "j1", "e1", day, at(9, 0, 0))
		if _, err := RecordTransition(tk, term, at(10, 0, 0)); err != nil {
			t.Fatalf("to %s: %v", term, err)
		}
		_, err := RecordTransition(tk, models.StatusInProgress, at(11, 0, 0))
		if !errors.Is(err, ErrTerminalState) {
			t.Fatalf("after %s: expected ErrTerminalState, got %v", term, err)
		}
	}
}

func TestNoBackwardMoveIntoPending(t *testing.T) {
	tk := New("t1", "j1", "e1", day, at(9, 0, 0))
	if _, err := RecordTransition(tk, models.StatusAssigned, at(9, 0, 0)); err != nil {
		t.Fatalf("assign: %v", err)
	}
	_, err := RecordTransition(tk, models.StatusPending, at(9, 10, 0))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestClockRegressionRejectedAndStateUnchanged(t *testing.T) {
	tk := New("t1", "j1", "e1", day, at(9, 0, 0))
	if _, err := RecordTransition(tk, models.StatusAssigned, at(9, 30, 0)); err != nil {
		t.Fatalf("assign: %v", err)
	}
	_, err := RecordTransition(tk, models.StatusInProgress, at(9, 10, 0))
	if !errors.Is(err, ErrClockRegression) {
		t.Fatalf("expected ErrClockRegression, got %v", err)
	}
	if tk.Status != models.StatusAssigned || !tk.LastTransitionAt.Equal(at(9, 30, 0)) {
		t.Fatalf("ticket mutated on failed transition: %+v", tk)
	}
}

// The sum of the three accumulators always equals the elapsed time spent in
// tracked states, never counting PENDING/COMPLETED/CANCELLED intervals.
func TestAccumulatorSumMatchesTrackedIntervals(t *testing.T) {
	tk := New("t1", "j1", "e1", day, at(8, 0, 0))
	steps := []struct {
		to models.Status
		at time.Time
	}{
		{models.StatusAssigned, at(9, 0, 0)},     // 1h PENDING, untracked
		{models.StatusInProgress, at(9, 20, 0)},  // 20m ASSIGNED
		{models.StatusOnHold, at(10, 0, 0)},      // 40m IN_PROGRESS
		{models.StatusInProgress, at(10, 30, 0)}, // 30m ON_HOLD
		{models.StatusCompleted, at(11, 0, 0)},   // 30m IN_PROGRESS
	}
	for _, s := range steps {
		if _, err := RecordTransition(tk, s.to, s.at); err != nil {
			t.Fatalf("to %s: %v", s.to, err)
		}
	}
	if tk.Assigned != 20*time.Minute {
		t.Fatalf("assigned: expected 20m, got %s", tk.Assigned)
	}
	if tk.InProgress != 70*time.Minute {
		t.Fatalf("in_progress: expected 70m, got %s", tk.InProgress)
	}
	if tk.OnHold != 30*time.Minute {
		t.Fatalf("on_hold: expected 30m, got %s", tk.OnHold)
	}
	sum := tk.Assigned + tk.InProgress + tk.OnHold
	if sum != 2*time.Hour {
		t.Fatalf("expected tracked sum 2h, got %s", sum)
	}
}

func TestSuccessorTableClosure(t *testing.T) {
	all := []models.Status{
		models.StatusPending, models.StatusAssigned, models.StatusInProgress,
		models.StatusOnHold, models.StatusCompleted, models.StatusCancelled,
	}
	for _, from := range all {
		for _, to := range Successors(from) {
			if !to.Valid() {
				t.Fatalf("unknown successor %s of %s", to, from)
			}
			if to == models.StatusPending {
				t.Fatalf("%s must not move back into PENDING", from)
			}
			if from.Terminal() {
				t.Fatalf("terminal %s must have no successors", from)
			}
		}
		if !from.Terminal() && !CanTransition(from, models.StatusCancelled) {
			t.Fatalf("%s must be cancellable", from)
		}
	}
}

func TestSubSecondPrecisionDiscarded(t *testing.T) {
	tk := New("t1", "j1", "e1", day, at(9, 0, 0).Add(300*time.Millisecond))
	if !tk.LastTransitionAt.Equal(at(9, 0, 0)) {
		t.Fatalf("expected second precision, got %s", tk.LastTransitionAt)
	}
	delta, err := RecordTransition(tk, models.StatusAssigned, at(9, 0, 1).Add(700*time.Millisecond))
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if delta.Elapsed != 0 {
		t.Fatalf("PENDING delta should be empty, got %+v", delta)
	}
	if !tk.LastTransitionAt.Equal(at(9, 0, 1)) {
		t.Fatalf("expected truncation to 09:00:01, got %s", tk.LastTransitionAt)
	}
}
