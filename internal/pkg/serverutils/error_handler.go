package serverutils

import (
	"errors"

	"growny-ai-be/internal/pkg/apperror"
	"growny-ai-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware renders any error returned down the chain as
// {success:false, code, detail}. With hideInternal set, 5xx responses never
// carry the underlying error text.
func ErrorHandlerMiddleware(log logger.ILogger, hideInternal bool) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status, code, detail := describe(err, hideInternal)

		if status >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": status,
				"error":  err,
			})
		}
		if status == fiber.StatusUnauthorized {
			ctx.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		}

		return ctx.Status(status).JSON(ErrorResponse(code, detail))
	}
}

func describe(err error, hideInternal bool) (int, string, string) {
	if appErr, ok := apperror.As(err); ok {
		detail := appErr.Message
		if appErr.Status >= fiber.StatusInternalServerError && !hideInternal && appErr.Err != nil {
			detail = appErr.Message + ": " + appErr.Err.Error()
		}
		return appErr.Status, string(appErr.Code), detail
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, codeForStatus(fiberErr.Code), fiberErr.Message
	}

	detail := "Internal server error"
	if !hideInternal {
		detail = err.Error()
	}
	return fiber.StatusInternalServerError, "INTERNAL_ERROR", detail
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return string(apperror.ErrValidation)
	case fiber.StatusUnauthorized:
		return string(apperror.ErrUnauthorized)
	case fiber.StatusNotFound:
		return string(apperror.ErrNotFound)
	case fiber.StatusTooManyRequests:
		return string(apperror.ErrRateLimited)
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		return "INTERNAL_ERROR"
	}
}
