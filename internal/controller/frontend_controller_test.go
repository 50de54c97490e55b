package controller

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"growny-ai-be/internal/pkg/logger"
	"growny-ai-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFrontendApp(staticDir string) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(logger.NewNopLogger(), true))
	NewFrontendController(staticDir, "1.0.0").RegisterRoutes(app)
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestHealth(t *testing.T) {
	status, body := get(t, newFrontendApp(t.TempDir()), "/api/health")

	require.Equal(t, 200, status)
	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "Growny-AI Backend API", out["message"])
	assert.Equal(t, "1.0.0", out["version"])
}

func TestFrontendNotBuilt(t *testing.T) {
	app := newFrontendApp(filepath.Join(t.TempDir(), "missing"))

	status, body := get(t, app, "/")
	assert.Equal(t, 200, status)
	assert.Contains(t, body, "Growny-AI Backend API")

	status, body = get(t, app, "/dashboard")
	assert.Equal(t, 200, status)
	assert.JSONEq(t, `{"message":"Frontend not built"}`, body)
}

func TestFrontendServesSPA(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "favicon.ico"), []byte("ico"), 0o644))

	app := newFrontendApp(dir)

	_, body := get(t, app, "/")
	assert.Equal(t, "<html>app</html>", body)

	_, body = get(t, app, "/favicon.ico")
	assert.Equal(t, "ico", body)

	_, body = get(t, app, "/tasks/42")
	assert.Equal(t, "<html>app</html>", body)

	_, body = get(t, app, "/static/favicon.ico")
	assert.Equal(t, "ico", body)
}

func TestUnknownAPIPathIsNotFound(t *testing.T) {
	status, _ := get(t, newFrontendApp(t.TempDir()), "/api/unknown")
	assert.Equal(t, 404, status)
}
