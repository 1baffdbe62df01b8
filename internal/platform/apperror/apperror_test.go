package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestKindOf(t *testing.T) {
	if KindOf(New(KindConflict, "taken")) != KindConflict {
		t.Error("direct error lost its kind")
	}

	wrapped := fmt.Errorf("outer: %w", New(KindNotFound, "gone"))
	if KindOf(wrapped) != KindNotFound {
		t.Error("wrapped error lost its kind")
	}

	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("unclassified error should be internal")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindInternal, "query doctors", cause)
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}

func respondWith(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	HTTPErrorHandler(zerolog.Nop())(err, c)
	return rec
}

func TestHTTPErrorHandlerStatusMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := respondWith(t, New(c.kind, "boom"))
		if rec.Code != c.want {
			t.Errorf("%v -> %d, want %d", c.kind, rec.Code, c.want)
		}
	}
}

func TestHTTPErrorHandlerHidesInternalDetail(t *testing.T) {
	rec := respondWith(t, Wrap(KindInternal, "password hash mismatch detail", errors.New("bcrypt: oops")))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["message"] != "internal server error" {
		t.Errorf("internal detail leaked: %q", body["message"])
	}
}

func TestHTTPErrorHandlerEchoErrors(t *testing.T) {
	rec := respondWith(t, echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("echo error status = %d", rec.Code)
	}
}
