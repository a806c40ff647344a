package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"quiz-forge/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(route string, h fiber.Handler, mw ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	handlers := append(mw, h)
	app.Get(route, handlers...)
	return app
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v))
}

func TestErrorHandler_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", domain.NewVersionNotFoundError("abc"), http.StatusNotFound, "VERSION_NOT_FOUND"},
		{"invalid", domain.NewInvalidRequestError("bad"), http.StatusBadRequest, "INVALID_REQUEST"},
		{"conflict", domain.NewConcurrentPromotionError("go", nil), http.StatusConflict, "CONCURRENT_PROMOTION_CONFLICT"},
		{"backend", domain.NewBackendUnavailableError(errors.New("timeout")), http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE"},
		{"internal", domain.NewInternalError("db down", errors.New("ORA-03113")), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"plain", errors.New("unexpected"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"fiber", fiber.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "HTTP_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp("/boom", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body ErrorResponse
			decodeBody(t, resp, &body)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantStatus, body.Status)
		})
	}
}

func TestErrorHandler_DetailsFromContext(t *testing.T) {
	app := newTestApp("/boom", func(c *fiber.Ctx) error {
		return domain.NewLiveVersionNotFoundError("biology")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)

	var body ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "biology", body.Details["topic_key"])
}

func TestValidateVersionID(t *testing.T) {
	vm := NewValidationMiddleware()
	app := newTestApp("/versions/:id", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(LocalVersionID).(string))
	}, vm.ValidateVersionID())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/versions/01HZX3J9Q8W4E5R6T7Y8V9K0MN", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/versions/not-a-ulid", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ValidationErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	require.NotEmpty(t, body.Errors)
	assert.Equal(t, "id", body.Errors[0].Field)
}

func TestValidateTopicKey_OptionalQuery(t *testing.T) {
	vm := NewValidationMiddleware()
	app := newTestApp("/retired", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	}, vm.ValidateTopicKey(true))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/retired", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/retired?topic_key=go.channels", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/retired?topic_key=bad%20key!", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
