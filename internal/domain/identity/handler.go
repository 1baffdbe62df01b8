package identity

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smartclinic/api/internal/platform/apperror"
	"github.com/smartclinic/api/internal/platform/auth"
	"github.com/smartclinic/api/pkg/pagination"
)

// Path segments that mean "no filter" in filter routes.
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

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/admin/login", h.AdminLogin)
	e.POST("/doctor/login", h.DoctorLogin)
	e.POST("/patient/login", h.PatientLogin)

	e.POST("/patient", h.RegisterPatient)
	e.GET("/patient/me", h.PatientProfile, auth.RequireRole(h.svc, auth.RolePatient))

	e.GET("/doctor", h.ListDoctors)
	e.GET("/doctor/filter/:name/:time/:specialty", h.FilterDoctors)

	admin := auth.RequireRole(h.svc, auth.RoleAdmin)
	e.POST("/doctor", h.CreateDoctor, admin)
	e.PUT("/doctor", h.UpdateDoctor, admin)
	e.DELETE("/doctor/:id", h.DeleteDoctor, admin)
}

// -- login --

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) AdminLogin(c echo.Context) error {
	var req adminLoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.KindValidation, "invalid request body")
	}
	token, err := h.svc.LoginAdmin(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token, "message": "login successful"})
}

func (h *Handler) DoctorLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.KindValidation, "invalid request body")
	}
	token, err := h.svc.LoginDoctor(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token, "message": "login successful"})
}

func (h *Handler) PatientLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.KindValidation, "invalid request body")
	}
	token, err := h.svc.LoginPatient(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token, "message": "login successful"})
}

// -- patients --

type registerPatientRequest struct {
	Patient
	Password string `json:"password"`
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var req registerPatientRequest
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.KindValidation, "invalid request body")
	}
	p, err := h.svc.RegisterPatient(c.Request().Context(), &req.Patient, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":      p.ID,
		"message": "patient registered",
	})
}

func (h *Handler) PatientProfile(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.New(apperror.KindUnauthorized, "missing or invalid token")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// -- doctors --

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDoctors(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) FilterDoctors(c echo.Context) error {
	name := filterParam(c, "name")
	period := filterParam(c, "time")
	specialty := filterParam(c, "specialty")

	doctors, err := h.svc.FilterDoctors(c.Request().Context(), name, period, specialty)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"doctors": doctors})
}

type doctorRequest struct {
	Doctor
	Password string `json:"password"`
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var req doctorRequest
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.KindValidation, "invalid request body")
	}
	d, err := h.svc.CreateDoctor(c.Request().Context(), &req.Doctor, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":      d.ID,
		"message": "doctor added",
	})
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return apperror.New(apperror.KindValidation, "invalid request body")
	}
	updated, err := h.svc.UpdateDoctor(c.Request().Context(), &d)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.New(apperror.KindValidation, "invalid doctor id")
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "doctor deleted"})
}
