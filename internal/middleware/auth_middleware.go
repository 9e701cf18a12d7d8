package middleware

import (
	"errors"
	"strings"
	"time"

	"greencycle/internal/repository"
	"greencycle/internal/service"
	"greencycle/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get("Authorization")
	if header == "" {
		return "", jwt.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", errors.New("Invalid authorization format. Use: Bearer <token>")
	}
	return token, nil
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}

// RequireAuth validates the bearer token against the stored session, token
// version and heartbeat idle time included, and puts the acting user into
// c.Locals. Privileges come from the database so that a privilege change
// applies without a new login.
func RequireAuth(userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if errors.Is(err, jwt.ErrMissingToken) {
			return unauthorized(c, "Missing authorization token")
		}
		if err != nil {
			return unauthorized(c, err.Error())
		}

		claims, err := jwt.ValidateToken(token)
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}

		user, err := userRepo.FindByID(claims.UserID)
		if err != nil {
			return unauthorized(c, "User not found")
		}
		if err := service.CheckSession(user, claims.TokenVersion, time.Now()); err != nil {
			return unauthorized(c, err.Error())
		}

		c.Locals("user_id", user.ID.String())
		c.Locals("user_email", user.Email)
		c.Locals("user_name", user.FullName)
		c.Locals("user_role", user.RoleCode())
		c.Locals("user_privileges", user.GetPrivilegeCodes())

		return c.Next()
	}
}

// RequirePrivilege rejects the request unless the user holds privilege
func RequirePrivilege(privilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No privileges found"})
		}
		for _, p := range privileges {
			if p == privilege {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden: requires '" + privilege + "' privilege",
		})
	}
}
