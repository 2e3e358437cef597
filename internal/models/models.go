package models

import "time"

// Status is the lifecycle state of a task ticket. Time spent in ASSIGNED,
// IN_PROGRESS and ON_HOLD is accumulated; the other states are not tracked.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusOnHold     Status = "ON_HOLD"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Tracked reports whether time spent in s accumulates into a duration bucket.
func (s Status) Tracked() bool {
	switch s {
	case StatusAssigned, StatusInProgress, StatusOnHold:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusOnHold, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// TaskTicket is one unit of assigned work (a mini job card) together with its
// per-state time accumulators. One row per ticket.
type TaskTicket struct {
	ID               string        `json:"id"`
	JobID            string        `json:"job_id"`
	EmployeeID       string        `json:"employee_id"`
	WorkDate         time.Time     `json:"work_date"`
	Status           Status        `json:"status"`
	LastStatus       Status        `json:"last_status"`
	LastTransitionAt time.Time     `json:"last_transition_at"`
	OnHold           time.Duration `json:"-"`
	Assigned         time.Duration `json:"-"`
	InProgress       time.Duration `json:"-"`
	CreatedAt        time.Time     `json:"created_at"`
}

// DailySession is the per-employee, per-day aggregate of time spent across all
// of that employee's tickets, plus overtime once the day is closed. Unique on
// (EmployeeID, WorkDate).
type DailySession struct {
	ID            string        `json:"id"`
	EmployeeID    string        `json:"employee_id"`
	WorkDate      time.Time     `json:"work_date"`
	FirstSeenAt   time.Time     `json:"first_seen_at"`
	LastSeenAt    time.Time     `json:"last_seen_at"`
	OnHold        time.Duration `json:"-"`
	Assigned      time.Duration `json:"-"`
	InProgress    time.Duration `json:"-"`
	Locations     []string      `json:"locations"`
	FirstLocation string        `json:"first_location"`
	LastLocation  string        `json:"last_location"`
	Status        Status        `json:"status"`
	LastStatus    Status        `json:"last_status"`
	MorningOT     time.Duration `json:"-"`
	EveningOT     time.Duration `json:"-"`
	Closed        bool          `json:"closed"`
	Version       int           `json:"version"`
}
