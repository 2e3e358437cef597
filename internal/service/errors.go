package service

import "errors"

var (
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrTicketExists         = errors.New("ticket already exists")
	ErrNoActiveSession      = errors.New("no session started for this day yet")
	ErrSessionAlreadyClosed = errors.New("session already ended for this day")
	ErrSessionClosed        = errors.New("session is closed, no further edits accepted")
	ErrNotCurrentDay        = errors.New("session can only be edited on its own day")
	ErrInvalidDateRange     = errors.New("start date must not be after end date")
)
