package middlewares

import (
	"slices"
	"strings"

	t_token "catalog_media_service/pkg/token"

	"github.com/gofiber/fiber/v2"
)

const (
	// QueryToken token in query name
	QueryToken = "auth"

	// TokenSubject get subject from token, set c.locals name
	TokenSubject = "Subject"
	// TokenRole get role from token, set c.locals name
	TokenRole = "role"
)

// JWTMiddleware validates JWT from the Authorization header (or ?auth=) and requires one of roles
func JWTMiddleware(manager *t_token.Manager, roles ...t_token.RoleType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")

		// header 沒有 token 時嘗試從 query 取得
		if tokenStr == "" {
			tokenStr = c.Query(QueryToken)
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token",
			})
		}

		claims, err := manager.Parse(tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		if len(roles) > 0 && !slices.Contains(roles, t_token.RoleType(claims.Role)) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Permission denied",
			})
		}

		c.Locals(TokenSubject, claims.Subject)
		c.Locals(TokenRole, claims.Role)
		return c.Next()
	}
}

// Passthrough auth 關閉時使用
func Passthrough() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Next()
	}
}
