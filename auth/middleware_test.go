package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func protectedApp(tokens *TokenManager) *fiber.App {
	app := fiber.New()
	app.Use(Middleware(tokens))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(ParticipantFromCtx(c))
	})
	return app
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokenManager([]byte("test-secret-for-tokens"), time.Hour)
	app := protectedApp(tokens)

	t.Run("should reject requests without a token", func(t *testing.T) {
		req := require.New(t)

		res, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/whoami", nil))

		req.NoError(err)
		req.Equal(fiber.StatusUnauthorized, res.StatusCode)
	})

	t.Run("should reject a garbage bearer token", func(t *testing.T) {
		req := require.New(t)
		httpReq := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
		httpReq.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-jwt")

		res, err := app.Test(httpReq)

		req.NoError(err)
		req.Equal(fiber.StatusUnauthorized, res.StatusCode)
	})

	t.Run("should inject the participant identity from a bearer token", func(t *testing.T) {
		req := require.New(t)
		signed, err := tokens.GenerateToken("uhura")
		req.NoError(err)

		httpReq := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
		httpReq.Header.Set(fiber.HeaderAuthorization, "Bearer "+signed)

		res, err := app.Test(httpReq)

		req.NoError(err)
		req.Equal(fiber.StatusOK, res.StatusCode)
	})

	t.Run("should accept the token as a query parameter", func(t *testing.T) {
		req := require.New(t)
		signed, err := tokens.GenerateToken("uhura")
		req.NoError(err)

		res, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/whoami?token="+signed, nil))

		req.NoError(err)
		req.Equal(fiber.StatusOK, res.StatusCode)
	})
}
