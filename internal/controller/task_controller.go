package controller

import (
	"growny-ai-be/internal/dto"
	"growny-ai-be/internal/pkg/apperror"
	"growny-ai-be/internal/pkg/serverutils"
	"growny-ai-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITaskController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
}

type taskController struct {
	taskService service.ITaskService
	auth        fiber.Handler
	rateLimit   fiber.Handler
}

func NewTaskController(taskService service.ITaskService, auth fiber.Handler, rateLimit fiber.Handler) ITaskController {
	return &taskController{
		taskService: taskService,
		auth:        auth,
		rateLimit:   rateLimit,
	}
}

func (c *taskController) RegisterRoutes(r fiber.Router) {
	r.Post("/tasks", c.auth, c.rateLimit, c.Create)
	r.Get("/tasks", c.auth, c.List)
	r.Delete("/tasks/:id", c.auth, c.Delete)
	r.Post("/search", c.auth, c.rateLimit, c.Search)
}

func (c *taskController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateTaskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.NewValidation("Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.taskService.Create(ctx.UserContext(), serverutils.OwnerID(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *taskController) List(ctx *fiber.Ctx) error {
	res, err := c.taskService.List(ctx.UserContext(), serverutils.OwnerID(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *taskController) Delete(ctx *fiber.Ctx) error {
	if err := c.taskService.Delete(ctx.UserContext(), serverutils.OwnerID(ctx), ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(dto.DeleteTaskResponse{
		Success: true,
		Message: "Task deleted successfully",
	})
}

func (c *taskController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchTaskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.NewValidation("Invalid request body")
	}

	res, err := c.taskService.Search(ctx.UserContext(), serverutils.OwnerID(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}
