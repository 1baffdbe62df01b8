package appointment

import (
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smartclinic/api/internal/platform/apperror"
	"github.com/smartclinic/api/internal/platform/auth"
)

const dateLayout = "2006-01-02"

// Timestamps arrive either with an explicit offset or as local wall
// clock time; both forms are accepted.
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperror.Newf(apperror.KindValidation, "invalid timestamp %q", s)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, apperror.Newf(apperror.KindValidation, "invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func filterParam(c echo.Context, name string) string {
	v := c.Param(name)
	switch v {
	case "null", "all", "-":
		return ""
	}
	return v
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, resolver auth.SubjectResolver) {
	patient := auth.RequireRole(resolver, auth.RolePatient)
	doctor := auth.RequireRole(resolver, auth.RoleDoctor)
	anyRole := auth.RequireRole(resolver, auth.RoleAdmin, auth.RoleDoctor, auth.RolePatient)

	e.POST("/appointments", h.Book, patient)
	e.PUT("/appointments", h.Update, patient)
	e.DELETE("/appointments/:id", h.Cancel, patient)

	e.GET("/appointments/:date", h.ScheduleForDay, doctor)
	e.GET("/appointments/:date/:name", h.ScheduleForDay, doctor)

	e.GET("/doctor/availability/:doctorId/:date", h.Availability, anyRole)

	e.GET("/patient/appointments", h.History, patient)
	e.GET("/patient/appointments/filter/:condition/:name", h.History, patient)
}

type bookRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Time     string    `json:"appointment_time"`
	Notes    string    `json:"notes"`
}

func (h *Handler) Book(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.New(apperror.KindUnauthorized, "missing or invalid token")
	}
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.KindValidation, "invalid request body")
	}
	at, err := parseTime(req.Time)
	if err != nil {
		return err
	}
	a, err := h.svc.Book(c.Request().Context(), BookRequest{
		DoctorID:  req.DoctorID,
		PatientID: actor.ID,
		Time:      at,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":      a.ID,
		"message": "appointment booked",
	})
}

type updateRequest struct {
	ID       uuid.UUID `json:"id"`
	DoctorID uuid.UUID `json:"doctor_id"`
	Time     string    `json:"appointment_time"`
	Status   Status    `json:"status"`
	Notes    string    `json:"notes"`
}

// Update enforces ownership here at the boundary: the actor must be
// the appointment's patient.
func (h *Handler) Update(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.New(apperror.KindUnauthorized, "missing or invalid token")
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.KindValidation, "invalid request body")
	}
	if req.ID == uuid.Nil {
		return apperror.New(apperror.KindValidation, "appointment id is required")
	}
	at, err := parseTime(req.Time)
	if err != nil {
		return err
	}

	existing, err := h.svc.Get(c.Request().Context(), req.ID)
	if err != nil {
		return err
	}
	if existing.PatientID != actor.ID {
		return apperror.New(apperror.KindForbidden, "appointment belongs to another patient")
	}

	updated, err := h.svc.Update(c.Request().Context(), &Appointment{
		ID:        req.ID,
		DoctorID:  req.DoctorID,
		PatientID: actor.ID,
		Time:      at,
		Status:    req.Status,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Cancel(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.New(apperror.KindUnauthorized, "missing or invalid token")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.New(apperror.KindValidation, "invalid appointment id")
	}
	if err := h.svc.Cancel(c.Request().Context(), id, actor.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "appointment cancelled"})
}

// ScheduleForDay lists the authenticated doctor's own appointments for
// the given day.
func (h *Handler) ScheduleForDay(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.New(apperror.KindUnauthorized, "missing or invalid token")
	}
	day, err := parseDate(c.Param("date"))
	if err != nil {
		return err
	}
	items, err := h.svc.ScheduleForDay(c.Request().Context(), actor.ID, day, filterParam(c, "name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"appointments": items})
}

func (h *Handler) Availability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return apperror.New(apperror.KindValidation, "invalid doctor id")
	}
	day, err := parseDate(c.Param("date"))
	if err != nil {
		return err
	}
	free, err := h.svc.Availability(c.Request().Context(), doctorID, day)
	if err != nil {
		return err
	}
	slots := slices.Collect(free)
	if slots == nil {
		slots = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"doctor_id":       doctorID,
		"date":            day.Format(dateLayout),
		"available_slots": slots,
	})
}

func (h *Handler) History(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.New(apperror.KindUnauthorized, "missing or invalid token")
	}
	items, err := h.svc.History(c.Request().Context(), actor.ID,
		filterParam(c, "condition"), filterParam(c, "name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"appointments": items})
}
