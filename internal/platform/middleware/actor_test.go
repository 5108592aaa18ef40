package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestActor_RequiredOnMutation(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admissions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Actor(true)
	h := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := h(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
}

func TestActor_NotRequiredOnRead(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/beds", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Actor(true)
	h := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestActor_StoredOnContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admissions", nil)
	req.Header.Set("X-Actor-ID", "nurse-7")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got string
	mw := Actor(true)
	h := mw(func(c echo.Context) error {
		got = ActorFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "nurse-7" {
		t.Errorf("expected actor 'nurse-7', got %q", got)
	}
}

func TestActorFromContext_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if actor := ActorFromContext(req.Context()); actor != "" {
		t.Errorf("expected empty actor, got %q", actor)
	}
}
