package serverutils

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"growny-ai-be/internal/pkg/apperror"
	"growny-ai-be/internal/pkg/logger"
	"growny-ai-be/internal/pkg/ratelimit"
	"growny-ai-be/pkg/identity"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	owner string
	err   error
}

func (s *stubVerifier) Verify(_ context.Context, token string) (*identity.Principal, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &identity.Principal{OwnerID: s.owner}, nil
}

func (s *stubVerifier) Mode() identity.Mode { return identity.ModeSecret }

func newTestApp(hideInternal bool, handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware(logger.NewNopLogger(), hideInternal))
	app.Get("/", handler)
	return app
}

func decode(t *testing.T, body io.Reader) ErrorBody {
	t.Helper()
	var out ErrorBody
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		hideInternal bool
		status       int
		code         string
		detail       string
	}{
		{"validation", apperror.NewValidation("Task text cannot be empty"), true, 400, "VALIDATION_ERROR", "Task text cannot be empty"},
		{"not found", apperror.NewNotFound("Task not found"), true, 404, "NOT_FOUND", "Task not found"},
		{"storage hidden", apperror.NewStorage("Failed to fetch tasks", errors.New("dial tcp 10.0.0.1")), true, 500, "STORAGE_ERROR", "Failed to fetch tasks"},
		{"storage shown", apperror.NewStorage("Failed to fetch tasks", errors.New("dial tcp")), false, 500, "STORAGE_ERROR", "Failed to fetch tasks: dial tcp"},
		{"plain hidden", errors.New("boom"), true, 500, "INTERNAL_ERROR", "Internal server error"},
		{"fiber error", fiber.ErrMethodNotAllowed, true, 405, "METHOD_NOT_ALLOWED", "Method Not Allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(tt.hideInternal, func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)

			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode(t, resp.Body)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.detail, body.Detail)
		})
	}
}

func TestIdentityMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		verifier *stubVerifier
		status   int
	}{
		{"missing header", "", &stubVerifier{owner: "u"}, 401},
		{"not bearer", "Basic abc", &stubVerifier{owner: "u"}, 401},
		{"rejected", "Bearer bad", &stubVerifier{err: identity.ErrInvalidToken}, 401},
		{"not configured", "Bearer tok", &stubVerifier{err: identity.ErrNotConfigured}, 401},
		{"accepted", "Bearer good", &stubVerifier{owner: "user-1"}, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware(logger.NewNopLogger(), true))
			app.Use(IdentityMiddleware(tt.verifier, logger.NewNopLogger()))
			app.Get("/", func(c *fiber.Ctx) error { return c.SendString(OwnerID(c)) })

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == 401 {
				assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
				assert.Equal(t, "Invalid authentication credentials", decode(t, resp.Body).Detail)
				return
			}
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, "user-1", string(body))
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware(logger.NewNopLogger(), true))
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("owner_id", "user-1")
		return c.Next()
	})
	app.Use(RateLimitMiddleware(ratelimit.NewRateLimiter(0.001, 1)))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(204) })

	first, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 204, first.StatusCode)

	second, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 429, second.StatusCode)
	assert.Equal(t, "RATE_LIMITED", decode(t, second.Body).Code)
}

func TestValidateRequest(t *testing.T) {
	type request struct {
		Text string `json:"text" label:"Task text" validate:"notblank"`
	}

	assert.NoError(t, ValidateRequest(request{Text: "buy milk"}))

	err := ValidateRequest(request{Text: "   "})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.ErrValidation, appErr.Code)
	assert.Equal(t, "Task text cannot be empty", appErr.Message)
}
