package prescription

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smartclinic/api/internal/platform/apperror"
	"github.com/smartclinic/api/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, resolver auth.SubjectResolver) {
	doctor := auth.RequireRole(resolver, auth.RoleDoctor)
	e.POST("/prescription/save", h.Issue, doctor)
	e.GET("/prescription/:appointmentId", h.Retrieve, doctor)
}

func (h *Handler) Issue(c echo.Context) error {
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return apperror.New(apperror.KindValidation, "invalid request body")
	}
	if err := h.svc.Issue(c.Request().Context(), &p); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":      p.ID,
		"message": "prescription saved",
	})
}

func (h *Handler) Retrieve(c echo.Context) error {
	appointmentID, err := uuid.Parse(c.Param("appointmentId"))
	if err != nil {
		return apperror.New(apperror.KindValidation, "invalid appointment id")
	}
	p, err := h.svc.Retrieve(c.Request().Context(), appointmentID)
	if err != nil {
		return err
	}
	if p == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"prescription": nil,
			"message":      "no prescription issued for this appointment",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"prescription": p,
		"message":      "prescription found",
	})
}
