package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ParticipantIDKey is the fiber.Ctx locals key under which the
// authenticated participant identity is stored for downstream handlers.
const ParticipantIDKey = "participant_id"

// Middleware validates the JWT carried by incoming HTTP requests.
// The token is expected either as a "Bearer <token>" Authorization
// header or, for websocket upgrades, as a "token" query parameter.
func Middleware(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}
		if tokenStr == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization token is missing")
		}

		claims, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		// Inject the identity for downstream handlers
		c.Locals(ParticipantIDKey, claims.ParticipantID)
		return c.Next()
	}
}

// ParticipantFromCtx returns the identity injected by Middleware.
func ParticipantFromCtx(c *fiber.Ctx) string {
	id, _ := c.Locals(ParticipantIDKey).(string)
	return id
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
