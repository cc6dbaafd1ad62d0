// Package api exposes the meeting and attendance stores over HTTP.
package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/rs/zerolog"
	"github.com/sicko7947/rollcall"
)

// Handler serves the meeting and attendance routes
type Handler struct {
	meetings   *rollcall.MeetingStore
	attendance *rollcall.AttendanceStore
	logger     zerolog.Logger
}

// NewHandler creates a handler over the given stores
func NewHandler(meetings *rollcall.MeetingStore, attendance *rollcall.AttendanceStore, logger zerolog.Logger) *Handler {
	return &Handler{
		meetings:   meetings,
		attendance: attendance,
		logger:     logger,
	}
}

// NewApp builds a Fiber app with middleware and all routes registered
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "rollcall",
	})

	app.Use(cors.New())
	app.Use(requestLogger(h.logger))

	h.Register(app)
	return app
}

// Register registers all HTTP routes
func (h *Handler) Register(app *fiber.App) {
	// Health check endpoint
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "rollcall",
		})
	})

	routes := app.Group("/api")

	routes.Get("/meeting", h.handleGetMeeting)
	routes.Put("/meeting", h.handleSetMeeting)

	routes.Post("/attendance", h.handleCreateAttendance)
	routes.Get("/attendance", h.handleListAttendance)
	routes.Delete("/attendance/:id", h.handleDeleteAttendance)
}

type meetingRequest struct {
	MeetingDate string `json:"meetingDate"`
	Agenda      string `json:"agenda"`
}

// handleGetMeeting returns the current meeting, creating today's default when none exists
func (h *Handler) handleGetMeeting(c fiber.Ctx) error {
	meeting, err := h.meetings.GetCurrentMeeting(c.Context())
	if err != nil {
		return h.writeError(c, err, "Failed to fetch meeting.")
	}
	return c.JSON(meeting)
}

// handleSetMeeting replaces the current meeting
func (h *Handler) handleSetMeeting(c fiber.Ctx) error {
	var req meetingRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body.",
		})
	}

	meeting, err := h.meetings.SetCurrentMeeting(c.Context(), req.MeetingDate, req.Agenda)
	if err != nil {
		return h.writeError(c, err, "Failed to update meeting.")
	}
	return c.JSON(meeting)
}

// handleCreateAttendance marks someone present
func (h *Handler) handleCreateAttendance(c fiber.Ctx) error {
	var input rollcall.AttendanceInput
	if err := c.Bind().JSON(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body.",
		})
	}

	rec, err := h.attendance.Create(c.Context(), input)
	if err != nil {
		return h.writeError(c, err, "Failed to mark attendance.")
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// handleListAttendance lists records for ?meetingDate= or the current meeting
func (h *Handler) handleListAttendance(c fiber.Ctx) error {
	records, err := h.attendance.ListByMeetingDate(c.Context(), c.Query("meetingDate"))
	if err != nil {
		return h.writeError(c, err, "Failed to fetch attendance.")
	}
	return c.JSON(records)
}

// handleDeleteAttendance removes one record and echoes it back
func (h *Handler) handleDeleteAttendance(c fiber.Ctx) error {
	rec, err := h.attendance.DeleteByID(c.Context(), c.Params("id"))
	if err != nil {
		return h.writeError(c, err, "Failed to delete attendance.")
	}
	return c.JSON(fiber.Map{
		"message": "Deleted successfully.",
		"record":  rec,
	})
}

// writeError maps store errors onto HTTP statuses. Storage failures are
// logged and reported with the generic fallback message.
func (h *Handler) writeError(c fiber.Ctx, err error, fallback string) error {
	var re *rollcall.RecordError
	errors.As(err, &re)

	switch {
	case rollcall.IsValidationError(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": re.Message,
			"fields":  re.Fields,
		})
	case rollcall.IsPreconditionError(err):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "No current meeting configured.",
		})
	case rollcall.IsNotFoundError(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Attendance record not found.",
		})
	default:
		h.logger.Error().
			Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("Request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": fallback,
		})
	}
}

// requestLogger logs one line per request
func requestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		logger.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")

		return err
	}
}
