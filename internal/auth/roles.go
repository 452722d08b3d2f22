package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// RequireActor ensures an actor context is present.
func RequireActor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := ActorFromContext(c); !ok {
			return apperrors.NewUnauthorized("actor context required")
		}
		return c.Next()
	}
}

// RequireSupportAgent ensures the actor may act as support staff.
func RequireSupportAgent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("actor context required")
		}
		if !actor.SupportAgent && !actor.Administrator {
			return apperrors.NewForbidden("support profile required")
		}
		return c.Next()
	}
}

// RequireAdministrator ensures the actor holds a privileged profile.
func RequireAdministrator() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("actor context required")
		}
		if !actor.Administrator {
			return apperrors.NewForbidden("administrator profile required")
		}
		return c.Next()
	}
}
