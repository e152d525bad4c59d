package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/errors"
)

func handleError(t *testing.T, err error) (*httptest.ResponseRecorder, domainerrors.Response) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	m := NewErrorMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.HandleHTTPError(err, c)

	var body domainerrors.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return rec, body
}

func TestErrorMiddleware_AppError(t *testing.T) {
	rec, body := handleError(t, errors.Wrap(domainerrors.ErrUnauthorized, "bad credentials"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, body.Success)
}

func TestErrorMiddleware_HTTPErrorWithStringMessage(t *testing.T) {
	rec, body := handleError(t, echo.NewHTTPError(http.StatusNotFound, "no such route"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no such route", body.Message)
}

func TestErrorMiddleware_HTTPErrorWithNonStringMessage(t *testing.T) {
	// Validators and handlers may attach structured payloads to HTTPError.
	payload := map[string]string{"field": "email"}

	rec, body := handleError(t, echo.NewHTTPError(http.StatusBadRequest, payload))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body.Message)
}

func TestErrorMiddleware_UnknownError(t *testing.T) {
	rec, body := handleError(t, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body.Message)
}
