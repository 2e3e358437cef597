package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/crewworks/backend/internal/clock"
	"github.com/crewworks/backend/internal/models"
)

// ReportService builds read-only projections over stored tickets and daily
// session records. Rows are ordered by date ascending; an empty range yields
// empty rows and zeroed totals, not an error.
type ReportService struct {
	Store  Store
	Loc    *time.Location
	Logger zerolog.Logger
}

// DurationCell carries one duration in both forms callers need: a formatted
// wall-clock string and a raw whole-minute count.
type DurationCell struct {
	Display string `json:"display"`
	Minutes int    `json:"minutes"`
}

func cell(d time.Duration) DurationCell {
	return DurationCell{Display: clock.FormatHMS(d), Minutes: clock.Minutes(d)}
}

// wrappedCell formats the daily OT total with the 24h wall-clock wrap. The
// minute count stays unwrapped.
func wrappedCell(d time.Duration) DurationCell {
	return DurationCell{Display: clock.WrapDayTotal(d), Minutes: clock.Minutes(d)}
}

type StatusTimeRow struct {
	TicketID   string        `json:"ticket_id"`
	JobID      string        `json:"job_id"`
	Date       string        `json:"date"`
	OnHold     DurationCell  `json:"on_hold"`
	Assigned   DurationCell  `json:"assigned"`
	InProgress DurationCell  `json:"in_progress"`
	Total      DurationCell  `json:"total"`
	Status     models.Status `json:"status"`
}

type StatusTimeTotals struct {
	OnHold     DurationCell `json:"on_hold"`
	Assigned   DurationCell `json:"assigned"`
	InProgress DurationCell `json:"in_progress"`
	Total      DurationCell `json:"total"`
}

type StatusTimeReport struct {
	EmployeeID string           `json:"employee_id"`
	StartDate  string           `json:"start_date"`
	EndDate    string           `json:"end_date"`
	Rows       []StatusTimeRow  `json:"rows"`
	Totals     StatusTimeTotals `json:"totals"`
}

// StatusTime returns one row per ticket-day in range: days without a ticket
// produce no row.
func (r *ReportService) StatusTime(ctx context.Context, employeeID string, start, end time.Time) (StatusTimeReport, error) {
	start = clock.DateOf(start, r.Loc)
	end = clock.DateOf(end, r.Loc)
	if start.After(end) {
		return StatusTimeReport{}, ErrInvalidDateRange
	}

	tickets, err := r.Store.ListTickets(ctx, employeeID, start, end)
	if err != nil {
		return StatusTimeReport{}, err
	}

	report := StatusTimeReport{
		EmployeeID: employeeID,
		StartDate:  start.Format("2006-01-02"),
		EndDate:    end.Format("2006-01-02"),
		Rows:       []StatusTimeRow{},
	}
	var onHold, assigned, inProgress time.Duration
	for _, t := range tickets {
		ticketTotal := t.OnHold + t.Assigned + t.InProgress
		report.Rows = append(report.Rows, StatusTimeRow{
			TicketID:   t.ID,
			JobID:      t.JobID,
			Date:       t.WorkDate.Format("2006-01-02"),
			OnHold:     cell(t.OnHold),
			Assigned:   cell(t.Assigned),
			InProgress: cell(t.InProgress),
			Total:      cell(ticketTotal),
			Status:     t.Status,
		})
		onHold += t.OnHold
		assigned += t.Assigned
		inProgress += t.InProgress
	}
	report.Totals = StatusTimeTotals{
		OnHold:     cell(onHold),
		Assigned:   cell(assigned),
		InProgress: cell(inProgress),
		Total:      cell(onHold + assigned + inProgress),
	}
	r.Logger.Debug().
		Str("employee_id", employeeID).
		Str("start", report.StartDate).
		Str("end", report.EndDate).
		Int("rows", len(report.Rows)).
		Msg("status-time report built")
	return report, nil
}

type OvertimeRow struct {
	Date          string        `json:"date"`
	FirstSeen     string        `json:"first_seen"`
	LastSeen      string        `json:"last_seen"`
	FirstLocation string        `json:"first_location"`
	LastLocation  string        `json:"last_location"`
	Locations     []string      `json:"locations"`
	MorningOT     DurationCell  `json:"morning_ot"`
	EveningOT     DurationCell  `json:"evening_ot"`
	TotalOT       DurationCell  `json:"total_ot"`
	OnHold        DurationCell  `json:"on_hold"`
	Assigned      DurationCell  `json:"assigned"`
	InProgress    DurationCell  `json:"in_progress"`
	Status        models.Status `json:"status"`
	LastStatus    models.Status `json:"last_status"`
	Closed        bool          `json:"closed"`
}

type OvertimeTotals struct {
	MorningOT  DurationCell `json:"morning_ot"`
	EveningOT  DurationCell `json:"evening_ot"`
	TotalOT    DurationCell `json:"total_ot"`
	OnHold     DurationCell `json:"on_hold"`
	Assigned   DurationCell `json:"assigned"`
	InProgress DurationCell `json:"in_progress"`
}

type OvertimeReport struct {
	EmployeeID string         `json:"employee_id"`
	StartDate  string         `json:"start_date"`
	EndDate    string         `json:"end_date"`
	Rows       []OvertimeRow  `json:"rows"`
	Totals     OvertimeTotals `json:"totals"`
}

// Overtime returns one row per calendar day in range that has a daily session
// record, with per-day overtime and bucket durations plus range totals.
func (r *ReportService) Overtime(ctx context.Context, employeeID string, start, end time.Time) (OvertimeReport, error) {
	start = clock.DateOf(start, r.Loc)
	end = clock.DateOf(end, r.Loc)
	if start.After(end) {
		return OvertimeReport{}, ErrInvalidDateRange
	}

	sessions, err := r.Store.ListSessions(ctx, employeeID, start, end)
	if err != nil {
		return OvertimeReport{}, err
	}

	report := OvertimeReport{
		EmployeeID: employeeID,
		StartDate:  start.Format("2006-01-02"),
		EndDate:    end.Format("2006-01-02"),
		Rows:       []OvertimeRow{},
	}
	var morning, evening, onHold, assigned, inProgress time.Duration
	for _, sess := range sessions {
		locations := sess.Locations
		if locations == nil {
			locations = []string{}
		}
		report.Rows = append(report.Rows, OvertimeRow{
			Date:          sess.WorkDate.Format("2006-01-02"),
			FirstSeen:     clock.At(sess.FirstSeenAt, r.Loc).String(),
			LastSeen:      clock.At(sess.LastSeenAt, r.Loc).String(),
			FirstLocation: sess.FirstLocation,
			LastLocation:  sess.LastLocation,
			Locations:     locations,
			MorningOT:     cell(sess.MorningOT),
			EveningOT:     cell(sess.EveningOT),
			TotalOT:       wrappedCell(sess.MorningOT + sess.EveningOT),
			OnHold:        cell(sess.OnHold),
			Assigned:      cell(sess.Assigned),
			InProgress:    cell(sess.InProgress),
			Status:        sess.Status,
			LastStatus:    sess.LastStatus,
			Closed:        sess.Closed,
		})
		morning += sess.MorningOT
		evening += sess.EveningOT
		onHold += sess.OnHold
		assigned += sess.Assigned
		inProgress += sess.InProgress
	}
	report.Totals = OvertimeTotals{
		MorningOT:  cell(morning),
		EveningOT:  cell(evening),
		TotalOT:    cell(morning + evening),
		OnHold:     cell(onHold),
		Assigned:   cell(assigned),
		InProgress: cell(inProgress),
	}
	r.Logger.Debug().
		Str("employee_id", employeeID).
		Str("start", report.StartDate).
		Str("end", report.EndDate).
		Int("rows", len(report.Rows)).
		Msg("overtime report built")
	return report, nil
}
