package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/crewworks/backend/internal/clock"
	"github.com/crewworks/backend/internal/ledger"
	"github.com/crewworks/backend/internal/models"
	"github.com/crewworks/backend/internal/utils"
)

// SessionService owns the lifecycle of daily session records: it ingests
// ledger transitions into the per-day aggregate, gates edits, and closes days
// with their overtime. Updates to one (employee, date) record are serialized
// through a keyed mutex; records for other employees or dates never contend.
type SessionService struct {
	Store  Store
	Bounds clock.DayBounds
	Loc    *time.Location
	Now    func() time.Time
	Logger zerolog.Logger

	locks *utils.KeyedMutex
}

func NewSessionService(store Store, bounds clock.DayBounds, loc *time.Location, now func() time.Time, logger zerolog.Logger) *SessionService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		Store:  store,
		Bounds: bounds,
		Loc:    loc,
		Now:    now,
		Logger: logger,
		locks:  utils.NewKeyedMutex(256),
	}
}

func sessionKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

type AssignTicketRequest struct {
	TicketID   string
	JobID      string
	EmployeeID string
	Date       time.Time
	OccurredAt time.Time
	Location   string
}

type ChangeStatusRequest struct {
	TicketID   string
	NewStatus  models.Status
	OccurredAt time.Time
	Location   string
}

// TransitionResult reports one applied transition. Warning carries a
// non-fatal data-quality signal (a clock regression seen during ingest).
type TransitionResult struct {
	Ticket  *models.TaskTicket
	Session *models.DailySession
	Delta   ledger.Delta
	Warning error
}

// AssignTicket creates the ticket ledger in PENDING, applies the ASSIGNED
// transition, and ingests it as the (possibly first) event of the employee's
// day. The session-creating first event is exempt from the CanEdit gate; once
// a record exists for the date the gate applies in full.
func (s *SessionService) AssignTicket(ctx context.Context, req AssignTicketRequest) (TransitionResult, error) {
	date := clock.DateOf(req.Date, s.Loc)
	key := sessionKey(req.EmployeeID, date)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	t := ledger.New(req.TicketID, req.JobID, req.EmployeeID, date, req.OccurredAt)
	delta, err := ledger.RecordTransition(t, models.StatusAssigned, req.OccurredAt)
	if err != nil {
		return TransitionResult{}, err
	}

	sess, err := s.Store.GetSession(ctx, req.EmployeeID, date)
	if err != nil {
		return TransitionResult{}, err
	}

	// Only the session-creating assignment skips the gate. Once a record
	// exists for the date it is an edit like any other: closed or
	// non-current-day sessions reject it.
	created := sess == nil
	if created {
		sess = newSession(req.EmployeeID, date, t.LastTransitionAt)
	} else if gateErr := s.editGate(sess, date); gateErr != nil {
		return TransitionResult{}, gateErr
	}
	warning := s.applyEvent(sess, t, delta, t.LastTransitionAt, req.Location)

	if err := s.Store.SaveAssignment(ctx, t, sess, created, req.Location); err != nil {
		return TransitionResult{}, err
	}
	return TransitionResult{Ticket: t, Session: sess, Delta: delta, Warning: warning}, nil
}

// ChangeStatus applies one ledger transition and folds it into the day's
// session record, both persisted in one transaction. The CanEdit gate runs
// first: a closed, missing, or non-current-day session rejects the change.
func (s *SessionService) ChangeStatus(ctx context.Context, req ChangeStatusRequest) (TransitionResult, error) {
	t, err := s.Store.GetTicket(ctx, req.TicketID)
	if err != nil {
		return TransitionResult{}, err
	}
	if t == nil {
		return TransitionResult{}, ErrTicketNotFound
	}

	key := sessionKey(t.EmployeeID, t.WorkDate)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	// The first read only picked the lock key. A concurrent writer may have
	// advanced the ticket before we held the lock, so re-read it here.
	t, err = s.Store.GetTicket(ctx, req.TicketID)
	if err != nil {
		return TransitionResult{}, err
	}
	if t == nil {
		return TransitionResult{}, ErrTicketNotFound
	}

	sess, err := s.Store.GetSession(ctx, t.EmployeeID, t.WorkDate)
	if err != nil {
		return TransitionResult{}, err
	}
	if gateErr := s.editGate(sess, t.WorkDate); gateErr != nil {
		return TransitionResult{}, gateErr
	}

	delta, err := ledger.RecordTransition(t, req.NewStatus, req.OccurredAt)
	if err != nil {
		return TransitionResult{}, err
	}
	warning := s.applyEvent(sess, t, delta, t.LastTransitionAt, req.Location)

	if err := s.Store.SaveTransition(ctx, t, sess, req.Location); err != nil {
		return TransitionResult{}, err
	}
	return TransitionResult{Ticket: t, Session: sess, Delta: delta, Warning: warning}, nil
}

// CanEdit reports whether the employee's session for date accepts ticket
// mutations: the record must exist, be open, and date must be today in the
// configured timezone. The returned error names the specific refusal.
func (s *SessionService) CanEdit(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	date = clock.DateOf(date, s.Loc)
	sess, err := s.Store.GetSession(ctx, employeeID, date)
	if err != nil {
		return false, err
	}
	if gateErr := s.editGate(sess, date); gateErr != nil {
		return false, gateErr
	}
	return true, nil
}

func (s *SessionService) editGate(sess *models.DailySession, date time.Time) error {
	if sess == nil {
		return ErrNoActiveSession
	}
	if sess.Closed {
		return ErrSessionClosed
	}
	if !clock.SameDate(date, clock.DateOf(s.Now(), s.Loc)) {
		return ErrNotCurrentDay
	}
	return nil
}

type EndSessionResult struct {
	Session   *models.DailySession
	MorningOT time.Duration
	EveningOT time.Duration
	Warning   error
}

// TotalOT is the derived daily total. Its display form wraps at 24h.
func (r EndSessionResult) TotalOT() time.Duration {
	return r.MorningOT + r.EveningOT
}

// EndSession closes the employee's day: it applies the final observed
// time/location under the monotonic rule, computes morning and evening
// overtime against the work-day bounds, and marks the record closed. A second
// call fails with ErrSessionAlreadyClosed and never recomputes the first
// call's overtime.
func (s *SessionService) EndSession(ctx context.Context, employeeID string, date time.Time, endTime time.Time, endLocation string) (EndSessionResult, error) {
	date = clock.DateOf(date, s.Loc)
	key := sessionKey(employeeID, date)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	sess, err := s.Store.GetSession(ctx, employeeID, date)
	if err != nil {
		return EndSessionResult{}, err
	}
	if sess == nil {
		return EndSessionResult{}, ErrNoActiveSession
	}
	if sess.Closed {
		return EndSessionResult{}, ErrSessionAlreadyClosed
	}

	endTime = clock.Truncate(endTime)
	var warning error
	if endTime.Before(sess.LastSeenAt) {
		warning = fmt.Errorf("%w: end time %s before last observed %s",
			ledger.ErrClockRegression, endTime.Format(time.RFC3339), sess.LastSeenAt.Format(time.RFC3339))
		s.Logger.Warn().
			Str("employee_id", employeeID).
			Str("date", date.Format("2006-01-02")).
			Msg("end-session time precedes last observed time, keeping last observed")
	} else {
		sess.LastSeenAt = endTime
	}
	if endLocation != "" {
		sess.Locations = append(sess.Locations, endLocation)
		sess.LastLocation = endLocation
		if sess.FirstLocation == "" {
			sess.FirstLocation = endLocation
		}
	}

	first := clock.At(sess.FirstSeenAt, s.Loc)
	last := clock.At(sess.LastSeenAt, s.Loc)
	if d := s.Bounds.Start.Sub(first); d > 0 {
		sess.MorningOT = d
	}
	if d := last.Sub(s.Bounds.End); d > 0 {
		sess.EveningOT = d
	}
	sess.Closed = true

	if err := s.Store.CloseSession(ctx, sess, endLocation); err != nil {
		return EndSessionResult{}, err
	}
	return EndSessionResult{Session: sess, MorningOT: sess.MorningOT, EveningOT: sess.EveningOT, Warning: warning}, nil
}

// Session returns the day's record, or ErrNoActiveSession when none exists.
func (s *SessionService) Session(ctx context.Context, employeeID string, date time.Time) (*models.DailySession, error) {
	sess, err := s.Store.GetSession(ctx, employeeID, clock.DateOf(date, s.Loc))
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoActiveSession
	}
	return sess, nil
}

func newSession(employeeID string, date time.Time, at time.Time) *models.DailySession {
	return &models.DailySession{
		EmployeeID:  employeeID,
		WorkDate:    date,
		FirstSeenAt: at,
		LastSeenAt:  at,
		Locations:   []string{},
		Status:      models.StatusPending,
		LastStatus:  models.StatusPending,
	}
}

// applyEvent folds one ledger transition into the session record. The
// last-observed time is monotonic: an earlier event time leaves it unchanged
// and returns a clock-regression warning, but the bucket increment and status
// mirror still apply because the ledger transition has already been accepted.
func (s *SessionService) applyEvent(sess *models.DailySession, t *models.TaskTicket, delta ledger.Delta, at time.Time, location string) error {
	var warning error
	if at.Before(sess.LastSeenAt) {
		warning = fmt.Errorf("%w: event time %s before last observed %s",
			ledger.ErrClockRegression, at.Format(time.RFC3339), sess.LastSeenAt.Format(time.RFC3339))
		s.Logger.Warn().
			Str("employee_id", sess.EmployeeID).
			Str("ticket_id", t.ID).
			Str("date", sess.WorkDate.Format("2006-01-02")).
			Msg("ingest time precedes last observed time, keeping last observed")
	} else {
		sess.LastSeenAt = at
	}

	switch delta.Bucket {
	case models.StatusOnHold:
		sess.OnHold += delta.Elapsed
	case models.StatusAssigned:
		sess.Assigned += delta.Elapsed
	case models.StatusInProgress:
		sess.InProgress += delta.Elapsed
	}

	if location != "" {
		sess.Locations = append(sess.Locations, location)
		sess.LastLocation = location
		if sess.FirstLocation == "" {
			sess.FirstLocation = location
		}
	}

	sess.LastStatus = t.LastStatus
	sess.Status = t.Status
	return warning
}
