package assignment

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/carechart/carechart/internal/platform/auth"
)

func TestHandler_CreateAssignment_DuplicateReturns409(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()
	actor := doctorPrincipal()

	do := func() (*httptest.ResponseRecorder, error) {
		body := `{"staff_id":"` + f.staffID.String() + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/"+f.patientID.String()+"/assignments", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), actor))
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(f.patientID.String())
		return rec, h.CreateAssignment(c)
	}

	rec, err := do()
	if err != nil {
		t.Fatalf("first assignment failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	_, err = do()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate pair, got %v", err)
	}
}

func TestHandler_CreateAssignment_MissingStaffID(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), doctorPrincipal()))
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(f.patientID.String())

	err := h.CreateAssignment(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
