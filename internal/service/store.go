package service

import (
	"context"
	"time"

	"github.com/crewworks/backend/internal/models"
)

// Store is the persistence contract the session and report services need.
// Lookup methods return (nil, nil) when the row does not exist. Save methods
// run their writes in one transaction and bump the session version with an
// optimistic guard.
type Store interface {
	GetTicket(ctx context.Context, id string) (*models.TaskTicket, error)
	GetSession(ctx context.Context, employeeID string, date time.Time) (*models.DailySession, error)
	// SaveAssignment persists a freshly created ticket plus its day session,
	// inserting the session when sessionCreated is true.
	SaveAssignment(ctx context.Context, t *models.TaskTicket, s *models.DailySession, sessionCreated bool, newLocation string) error
	// SaveTransition persists one ledger transition together with the session
	// update it produced.
	SaveTransition(ctx context.Context, t *models.TaskTicket, s *models.DailySession, newLocation string) error
	// CloseSession persists the end-of-day overtime fields and closed flag.
	CloseSession(ctx context.Context, s *models.DailySession, newLocation string) error
	// List methods return rows in the inclusive date range, ordered by date
	// ascending.
	ListTickets(ctx context.Context, employeeID string, start, end time.Time) ([]models.TaskTicket, error)
	ListSessions(ctx context.Context, employeeID string, start, end time.Time) ([]models.DailySession, error)
}
