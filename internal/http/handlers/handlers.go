package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/crewworks/backend/internal/clock"
	"github.com/crewworks/backend/internal/db"
	"github.com/crewworks/backend/internal/ledger"
	"github.com/crewworks/backend/internal/models"
	"github.com/crewworks/backend/internal/service"
)

type Handler struct {
	Store     *db.Store
	Sessions  *service.SessionService
	Reports   *service.ReportService
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type AssignTicketRequest struct {
	TicketID   string    `json:"ticket_id" validate:"required"`
	JobID      string    `json:"job_id" validate:"required"`
	EmployeeID string    `json:"employee_id" validate:"required"`
	Date       string    `json:"date" validate:"required"`
	OccurredAt time.Time `json:"occurred_at" validate:"required"`
	Location   string    `json:"location"`
}

// @Summary Assign a ticket to an employee for a date
// @Description Creates the ticket ledger and opens the employee's daily session when it is the first event of the day
// @Tags tickets
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/tickets [post]
func (h *Handler) TicketCreate(c *gin.Context) {
	var req AssignTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD", nil)
		return
	}

	res, err := h.Sessions.AssignTicket(c.Request.Context(), service.AssignTicketRequest{
		TicketID:   req.TicketID,
		JobID:      req.JobID,
		EmployeeID: req.EmployeeID,
		Date:       date,
		OccurredAt: req.OccurredAt,
		Location:   req.Location,
	})
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.transitionResponse(res))
}

type ChangeStatusRequest struct {
	Status     string    `json:"status" validate:"required"`
	OccurredAt time.Time `json:"occurred_at" validate:"required"`
	Location   string    `json:"location"`
}

// @Summary Change a ticket's status
// @Tags tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/tickets/{id}/status [post]
func (h *Handler) TicketStatus(c *gin.Context) {
	id := c.Param("id")
	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	newStatus := models.Status(req.Status)
	if !newStatus.Valid() {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown status", req.Status)
		return
	}

	res, err := h.Sessions.ChangeStatus(c.Request.Context(), service.ChangeStatusRequest{
		TicketID:   id,
		NewStatus:  newStatus,
		OccurredAt: req.OccurredAt,
		Location:   req.Location,
	})
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.transitionResponse(res))
}

func (h *Handler) TicketDetails(c *gin.Context) {
	t, err := h.Store.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get ticket", err.Error())
		return
	}
	if t == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
		return
	}
	c.JSON(http.StatusOK, ticketBody(t))
}

func (h *Handler) EmployeeTickets(c *gin.Context) {
	employeeID := c.Param("id")
	date := h.Sessions.Now()
	if q := c.Query("date"); q != "" {
		var err error
		if date, err = parseDate(q); err != nil {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD", nil)
			return
		}
	}
	day := clock.DateOf(date, h.Sessions.Loc)

	tickets, err := h.Store.ListTickets(c.Request.Context(), employeeID, day, day)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list tickets", err.Error())
		return
	}
	items := make([]gin.H, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketBody(&tickets[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "date": day.Format("2006-01-02")})
}

type EndSessionRequest struct {
	EmployeeID string    `json:"employee_id" validate:"required"`
	Date       string    `json:"date" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required"`
	Location   string    `json:"location"`
}

// @Summary End an employee's work day
// @Description Closes the daily session and computes morning/evening overtime against the configured work-day bounds
// @Tags sessions
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/sessions/end [post]
func (h *Handler) SessionEnd(c *gin.Context) {
	var req EndSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD", nil)
		return
	}

	res, err := h.Sessions.EndSession(c.Request.Context(), req.EmployeeID, date, req.EndTime, req.Location)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	body := gin.H{
		"employee_id": req.EmployeeID,
		"date":        req.Date,
		"morning_ot":  durationBody(res.MorningOT),
		"evening_ot":  durationBody(res.EveningOT),
		"total_ot": gin.H{
			"display": clock.WrapDayTotal(res.TotalOT()),
			"minutes": clock.Minutes(res.TotalOT()),
		},
	}
	if res.Warning != nil {
		body["warning"] = res.Warning.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) SessionGet(c *gin.Context) {
	date, err := parseDate(c.Param("date"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD", nil)
		return
	}
	sess, err := h.Sessions.Session(c.Request.Context(), c.Param("employeeId"), date)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionBody(sess, h.Sessions.Loc))
}

func (h *Handler) ReportStatusTime(c *gin.Context) {
	employeeID, start, end, ok := h.reportParams(c)
	if !ok {
		return
	}
	report, err := h.Reports.StatusTime(c.Request.Context(), employeeID, start, end)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) ReportOvertime(c *gin.Context) {
	employeeID, start, end, ok := h.reportParams(c)
	if !ok {
		return
	}
	report, err := h.Reports.Overtime(c.Request.Context(), employeeID, start, end)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) reportParams(c *gin.Context) (employeeID string, start, end time.Time, ok bool) {
	employeeID = c.Query("employee_id")
	if employeeID == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "employee_id is required", nil)
		return "", time.Time{}, time.Time{}, false
	}
	var err error
	if start, err = parseDate(c.Query("start")); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "start must be YYYY-MM-DD", nil)
		return "", time.Time{}, time.Time{}, false
	}
	if end, err = parseDate(c.Query("end")); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "end must be YYYY-MM-DD", nil)
		return "", time.Time{}, time.Time{}, false
	}
	return employeeID, start, end, true
}

// writeEngineError maps engine errors to caller-visible responses. Every
// rejection carries a specific code and message so staff can tell why an edit
// was refused.
func (h *Handler) writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTicketNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
	case errors.Is(err, service.ErrTicketExists):
		writeError(c, http.StatusConflict, "TICKET_EXISTS", "A ticket with this ID is already assigned", nil)
	case errors.Is(err, ledger.ErrTerminalState):
		writeError(c, http.StatusConflict, "TERMINAL_STATE", "Ticket is already completed or cancelled", err.Error())
	case errors.Is(err, ledger.ErrInvalidTransition):
		writeError(c, http.StatusConflict, "INVALID_TRANSITION", "Status change not allowed from the current status", err.Error())
	case errors.Is(err, ledger.ErrClockRegression):
		writeError(c, http.StatusBadRequest, "CLOCK_REGRESSION", "Event time precedes the ticket's last transition", err.Error())
	case errors.Is(err, service.ErrNoActiveSession):
		writeError(c, http.StatusConflict, "NO_ACTIVE_SESSION", "No session started for this day yet", nil)
	case errors.Is(err, service.ErrSessionAlreadyClosed):
		writeError(c, http.StatusConflict, "SESSION_ALREADY_CLOSED", "Session already ended for today", nil)
	case errors.Is(err, service.ErrSessionClosed):
		writeError(c, http.StatusConflict, "SESSION_CLOSED", "Session is closed, edits are no longer accepted", nil)
	case errors.Is(err, service.ErrNotCurrentDay):
		writeError(c, http.StatusConflict, "SESSION_CLOSED", "Sessions can only be edited on their own day", nil)
	case errors.Is(err, service.ErrInvalidDateRange):
		writeError(c, http.StatusBadRequest, "INVALID_DATE_RANGE", "start date must not be after end date", nil)
	default:
		h.Logger.Error().Err(err).Msg("engine operation failed")
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Operation failed", err.Error())
	}
}

func (h *Handler) transitionResponse(res service.TransitionResult) gin.H {
	body := gin.H{
		"ticket":  ticketBody(res.Ticket),
		"session": sessionBody(res.Session, h.Sessions.Loc),
	}
	if res.Warning != nil {
		body["warning"] = res.Warning.Error()
	}
	return body
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func parseDate(v string) (time.Time, error) {
	return time.Parse("2006-01-02", v)
}

func durationBody(d time.Duration) gin.H {
	return gin.H{
		"display": clock.FormatHMS(d),
		"minutes": clock.Minutes(d),
	}
}

func ticketBody(t *models.TaskTicket) gin.H {
	return gin.H{
		"id":                 t.ID,
		"job_id":             t.JobID,
		"employee_id":        t.EmployeeID,
		"work_date":          t.WorkDate.Format("2006-01-02"),
		"status":             t.Status,
		"last_status":        t.LastStatus,
		"last_transition_at": t.LastTransitionAt,
		"on_hold":            durationBody(t.OnHold),
		"assigned":           durationBody(t.Assigned),
		"in_progress":        durationBody(t.InProgress),
		"created_at":         t.CreatedAt,
	}
}

func sessionBody(s *models.DailySession, loc *time.Location) gin.H {
	locations := s.Locations
	if locations == nil {
		locations = []string{}
	}
	totalOT := s.MorningOT + s.EveningOT
	return gin.H{
		"employee_id":    s.EmployeeID,
		"work_date":      s.WorkDate.Format("2006-01-02"),
		"first_seen":     clock.At(s.FirstSeenAt, loc).String(),
		"last_seen":      clock.At(s.LastSeenAt, loc).String(),
		"on_hold":        durationBody(s.OnHold),
		"assigned":       durationBody(s.Assigned),
		"in_progress":    durationBody(s.InProgress),
		"locations":      locations,
		"first_location": s.FirstLocation,
		"last_location":  s.LastLocation,
		"status":         s.Status,
		"last_status":    s.LastStatus,
		"morning_ot":     durationBody(s.MorningOT),
		"evening_ot":     durationBody(s.EveningOT),
		"total_ot": gin.H{
			"display": clock.WrapDayTotal(totalOT),
			"minutes": clock.Minutes(totalOT),
		},
		"closed": s.Closed,
	}
}
