package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/crewworks/backend/internal/models"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTerminalState     = errors.New("ticket is in a terminal state")
	ErrClockRegression   = errors.New("event time precedes last transition")
)

// successors is the closed transition table. The three tracked states move
// freely between each other, PENDING may skip ahead, nothing moves back into
// PENDING, and any non-terminal state may complete or cancel.
var successors = map[models.Status][]models.Status{
	models.StatusPending:    {models.StatusAssigned, models.StatusInProgress, models.StatusOnHold, models.StatusCompleted, models.StatusCancelled},
	models.StatusAssigned:   {models.StatusInProgress, models.StatusOnHold, models.StatusCompleted, models.StatusCancelled},
	models.StatusInProgress: {models.StatusAssigned, models.StatusOnHold, models.StatusCompleted, models.StatusCancelled},
	models.StatusOnHold:     {models.StatusAssigned, models.StatusInProgress, models.StatusCompleted, models.StatusCancelled},
	models.StatusCompleted:  {},
	models.StatusCancelled:  {},
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to models.Status) bool {
	for _, s := range successors[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Successors returns the legal next statuses for from, nil for terminal states.
func Successors(from models.Status) []models.Status {
	next := successors[from]
	if len(next) == 0 {
		return nil
	}
	out := make([]models.Status, len(next))
	copy(out, next)
	return out
}

// Delta is the accumulator increment produced by one transition. Bucket is
// empty when the previous status was not tracked.
type Delta struct {
	Bucket  models.Status
	Elapsed time.Duration
}

// New creates a ticket ledger in PENDING at the given instant.
func New(id, jobID, employeeID string, workDate, at time.Time) *models.TaskTicket {
	at = at.Truncate(time.Second)
	return &models.TaskTicket{
		ID:               id,
		JobID:            jobID,
		EmployeeID:       employeeID,
		WorkDate:         workDate,
		Status:           models.StatusPending,
		LastStatus:       models.StatusPending,
		LastTransitionAt: at,
		CreatedAt:        at,
	}
}

// RecordTransition moves t to newStatus at occurredAt, crediting the elapsed
// interval to the bucket of the previous status when that status is tracked.
// The ticket is mutated only on success.
func RecordTransition(t *models.TaskTicket, newStatus models.Status, occurredAt time.Time) (Delta, error) {
	occurredAt = occurredAt.Truncate(time.Second)
	if t.Status.Terminal() {
		return Delta{}, fmt.Errorf("%w: %s", ErrTerminalState, t.Status)
	}
	if newStatus == t.Status {
		return Delta{}, fmt.Errorf("%w: already %s", ErrInvalidTransition, t.Status)
	}
	if !CanTransition(t.Status, newStatus) {
		return Delta{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, newStatus)
	}
	if occurredAt.Before(t.LastTransitionAt) {
		return Delta{}, fmt.Errorf("%w: %s before %s",
			ErrClockRegression, occurredAt.Format(time.RFC3339), t.LastTransitionAt.Format(time.RFC3339))
	}

	elapsed := occurredAt.Sub(t.LastTransitionAt)
	var delta Delta
	if t.Status.Tracked() {
		delta = Delta{Bucket: t.Status, Elapsed: elapsed}
		switch t.Status {
		case models.StatusOnHold:
			t.OnHold += elapsed
		case models.StatusAssigned:
			t.Assigned += elapsed
		case models.StatusInProgress:
			t.InProgress += elapsed
		}
	}

	t.LastStatus = t.Status
	t.Status = newStatus
	t.LastTransitionAt = occurredAt
	return delta, nil
}
