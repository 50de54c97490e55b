package controller

import (
	"os"
	"path/filepath"
	"strings"

	"growny-ai-be/internal/dto"

	"github.com/gofiber/fiber/v2"
)

const healthMessage = "Growny-AI Backend API"

// IFrontendController serves the health check and the built single-page app.
type IFrontendController interface {
	RegisterRoutes(app *fiber.App)
	Health(ctx *fiber.Ctx) error
	Index(ctx *fiber.Ctx) error
	CatchAll(ctx *fiber.Ctx) error
}

type frontendController struct {
	staticDir string
	version   string
}

func NewFrontendController(staticDir, version string) IFrontendController {
	return &frontendController{
		staticDir: staticDir,
		version:   version,
	}
}

// RegisterRoutes must run after every API controller: the catch-all is last.
func (c *frontendController) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", c.Health)
	app.Get("/", c.Index)
	if isDir(c.staticDir) {
		app.Static("/static", c.staticDir)
	}
	app.Get("/*", c.CatchAll)
}

func (c *frontendController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.HealthResponse{
		Message: healthMessage,
		Version: c.version,
	})
}

func (c *frontendController) Index(ctx *fiber.Ctx) error {
	index := filepath.Join(c.staticDir, "index.html")
	if isFile(index) {
		return ctx.SendFile(index)
	}
	return c.Health(ctx)
}

func (c *frontendController) CatchAll(ctx *fiber.Ctx) error {
	path := ctx.Path()
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		return fiber.ErrNotFound
	}

	// Clean against "/" so the result cannot climb out of staticDir
	requested := filepath.Join(c.staticDir, filepath.Clean("/"+ctx.Params("*")))
	if isFile(requested) {
		return ctx.SendFile(requested)
	}

	index := filepath.Join(c.staticDir, "index.html")
	if isFile(index) {
		return ctx.SendFile(index)
	}

	return ctx.JSON(fiber.Map{"message": "Frontend not built"})
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
