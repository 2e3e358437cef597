package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewworks/backend/internal/models"
	"github.com/crewworks/backend/internal/service"
)

// ErrVersionConflict signals a concurrent writer won the optimistic version
// check on a daily session row.
var ErrVersionConflict = errors.New("daily session was modified concurrently")

const pgUniqueViolation = "23505"

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) GetTicket(ctx context.Context, id string) (*models.TaskTicket, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, job_id, employee_id, work_date, status, last_status, last_transition_at,
			on_hold_seconds, assigned_seconds, in_progress_seconds, created_at
		FROM task_tickets WHERE id = $1
	`, id)

	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (s *Store) GetSession(ctx context.Context, employeeID string, date time.Time) (*models.DailySession, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, employee_id, work_date, first_seen_at, last_seen_at,
			on_hold_seconds, assigned_seconds, in_progress_seconds,
			first_location, last_location, status, last_status,
			morning_ot_seconds, evening_ot_seconds, closed, version
		FROM daily_sessions WHERE employee_id = $1 AND work_date = $2
	`, employeeID, date)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := s.loadLocations(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*models.TaskTicket, error) {
	var (
		t                            models.TaskTicket
		status, lastStatus           string
		onHold, assigned, inProgress int64
	)
	if err := row.Scan(&t.ID, &t.JobID, &t.EmployeeID, &t.WorkDate, &status, &lastStatus,
		&t.LastTransitionAt, &onHold, &assigned, &inProgress, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Status = models.Status(status)
	t.LastStatus = models.Status(lastStatus)
	t.OnHold = time.Duration(onHold) * time.Second
	t.Assigned = time.Duration(assigned) * time.Second
	t.InProgress = time.Duration(inProgress) * time.Second
	return &t, nil
}

func scanSession(row rowScanner) (*models.DailySession, error) {
	var (
		sess                                   models.DailySession
		status, lastStatus                     string
		firstLocation, lastLocation            *string
		onHold, assigned, inProgress, mOT, eOT int64
	)
	if err := row.Scan(&sess.ID, &sess.EmployeeID, &sess.WorkDate, &sess.FirstSeenAt, &sess.LastSeenAt,
		&onHold, &assigned, &inProgress, &firstLocation, &lastLocation, &status, &lastStatus,
		&mOT, &eOT, &sess.Closed, &sess.Version); err != nil {
		return nil, err
	}
	sess.OnHold = time.Duration(onHold) * time.Second
	sess.Assigned = time.Duration(assigned) * time.Second
	sess.InProgress = time.Duration(inProgress) * time.Second
	sess.MorningOT = time.Duration(mOT) * time.Second
	sess.EveningOT = time.Duration(eOT) * time.Second
	sess.Status = models.Status(status)
	sess.LastStatus = models.Status(lastStatus)
	if firstLocation != nil {
		sess.FirstLocation = *firstLocation
	}
	if lastLocation != nil {
		sess.LastLocation = *lastLocation
	}
	sess.Locations = []string{}
	return &sess, nil
}

func (s *Store) loadLocations(ctx context.Context, sess *models.DailySession) error {
	rows, err := s.Pool.Query(ctx, `
		SELECT location FROM session_locations WHERE session_id = $1 ORDER BY seq ASC
	`, sess.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return err
		}
		sess.Locations = append(sess.Locations, loc)
	}
	return rows.Err()
}

func (s *Store) SaveAssignment(ctx context.Context, t *models.TaskTicket, sess *models.DailySession, sessionCreated bool, newLocation string) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO task_tickets (id, job_id, employee_id, work_date, status, last_status,
				last_transition_at, on_hold_seconds, assigned_seconds, in_progress_seconds, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`, t.ID, t.JobID, t.EmployeeID, t.WorkDate, string(t.Status), string(t.LastStatus),
			t.LastTransitionAt, int64(t.OnHold/time.Second), int64(t.Assigned/time.Second),
			int64(t.InProgress/time.Second), t.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return service.ErrTicketExists
			}
			return err
		}
		if sessionCreated {
			if err := insertSession(ctx, tx, sess); err != nil {
				return err
			}
		} else if err := updateSession(ctx, tx, sess); err != nil {
			return err
		}
		return appendLocation(ctx, tx, sess.ID, newLocation)
	})
}

func (s *Store) SaveTransition(ctx context.Context, t *models.TaskTicket, sess *models.DailySession, newLocation string) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE task_tickets
			SET status = $1, last_status = $2, last_transition_at = $3,
				on_hold_seconds = $4, assigned_seconds = $5, in_progress_seconds = $6
			WHERE id = $7
		`, string(t.Status), string(t.LastStatus), t.LastTransitionAt,
			int64(t.OnHold/time.Second), int64(t.Assigned/time.Second), int64(t.InProgress/time.Second), t.ID)
		if err != nil {
			return err
		}
		if err := updateSession(ctx, tx, sess); err != nil {
			return err
		}
		return appendLocation(ctx, tx, sess.ID, newLocation)
	})
}

func (s *Store) CloseSession(ctx context.Context, sess *models.DailySession, newLocation string) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if err := updateSession(ctx, tx, sess); err != nil {
			return err
		}
		return appendLocation(ctx, tx, sess.ID, newLocation)
	})
}

func insertSession(ctx context.Context, tx pgx.Tx, sess *models.DailySession) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO daily_sessions (employee_id, work_date, first_seen_at, last_seen_at,
			on_hold_seconds, assigned_seconds, in_progress_seconds,
			first_location, last_location, status, last_status,
			morning_ot_seconds, evening_ot_seconds, closed, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,1)
		RETURNING id
	`, sess.EmployeeID, sess.WorkDate, sess.FirstSeenAt, sess.LastSeenAt,
		int64(sess.OnHold/time.Second), int64(sess.Assigned/time.Second), int64(sess.InProgress/time.Second),
		nullable(sess.FirstLocation), nullable(sess.LastLocation), string(sess.Status), string(sess.LastStatus),
		int64(sess.MorningOT/time.Second), int64(sess.EveningOT/time.Second), sess.Closed).Scan(&sess.ID)
	if err != nil {
		return err
	}
	sess.Version = 1
	return nil
}

// updateSession writes the full session row guarded by the version column; a
// lost optimistic race surfaces as ErrVersionConflict.
func updateSession(ctx context.Context, tx pgx.Tx, sess *models.DailySession) error {
	tag, err := tx.Exec(ctx, `
		UPDATE daily_sessions
		SET first_seen_at = $1, last_seen_at = $2,
			on_hold_seconds = $3, assigned_seconds = $4, in_progress_seconds = $5,
			first_location = $6, last_location = $7, status = $8, last_status = $9,
			morning_ot_seconds = $10, evening_ot_seconds = $11, closed = $12, version = version + 1
		WHERE id = $13 AND version = $14
	`, sess.FirstSeenAt, sess.LastSeenAt,
		int64(sess.OnHold/time.Second), int64(sess.Assigned/time.Second), int64(sess.InProgress/time.Second),
		nullable(sess.FirstLocation), nullable(sess.LastLocation), string(sess.Status), string(sess.LastStatus),
		int64(sess.MorningOT/time.Second), int64(sess.EveningOT/time.Second), sess.Closed,
		sess.ID, sess.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	sess.Version++
	return nil
}

func appendLocation(ctx context.Context, tx pgx.Tx, sessionID string, location string) error {
	if location == "" {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO session_locations (session_id, seq, location)
		VALUES ($1, (SELECT COALESCE(MAX(seq), 0) + 1 FROM session_locations WHERE session_id = $1), $2)
	`, sessionID, location)
	return err
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func (s *Store) ListTickets(ctx context.Context, employeeID string, start, end time.Time) ([]models.TaskTicket, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, job_id, employee_id, work_date, status, last_status, last_transition_at,
			on_hold_seconds, assigned_seconds, in_progress_seconds, created_at
		FROM task_tickets
		WHERE employee_id = $1 AND work_date BETWEEN $2 AND $3
		ORDER BY work_date ASC, created_at ASC, id ASC
	`, employeeID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TaskTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) ListSessions(ctx context.Context, employeeID string, start, end time.Time) ([]models.DailySession, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, employee_id, work_date, first_seen_at, last_seen_at,
			on_hold_seconds, assigned_seconds, in_progress_seconds,
			first_location, last_location, status, last_status,
			morning_ot_seconds, evening_ot_seconds, closed, version
		FROM daily_sessions
		WHERE employee_id = $1 AND work_date BETWEEN $2 AND $3
		ORDER BY work_date ASC
	`, employeeID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DailySession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.loadLocations(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
