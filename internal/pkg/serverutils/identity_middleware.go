package serverutils

import (
	"strings"

	"growny-ai-be/internal/pkg/apperror"
	"growny-ai-be/internal/pkg/logger"
	"growny-ai-be/internal/pkg/ratelimit"
	"growny-ai-be/pkg/identity"

	"github.com/gofiber/fiber/v2"
)

const ownerIDKey = "owner_id"

// IdentityMiddleware verifies the bearer token and stores the principal's id
// under "owner_id" for the handlers.
func IdentityMiddleware(verifier identity.Verifier, log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get(fiber.HeaderAuthorization)
		if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
			return apperror.NewUnauthorized("")
		}
		token := strings.TrimSpace(authHeader[7:])

		principal, err := verifier.Verify(ctx.UserContext(), token)
		if err != nil {
			log.Debug("AUTH", "Token rejected", map[string]interface{}{
				"path":  ctx.Path(),
				"error": err,
			})
			return apperror.NewUnauthorized("")
		}

		ctx.Locals(ownerIDKey, principal.OwnerID)
		return ctx.Next()
	}
}

// OwnerID returns the principal set by IdentityMiddleware.
func OwnerID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(ownerIDKey).(string)
	return id
}

// RateLimitMiddleware throttles per principal. A nil limiter lets everything through.
func RateLimitMiddleware(limiter *ratelimit.RateLimiter) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !limiter.Allow(OwnerID(ctx)) {
			return apperror.NewRateLimited()
		}
		return ctx.Next()
	}
}
