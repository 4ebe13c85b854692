package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deanwaring-hub/voicecraft/internal/session"
	"github.com/deanwaring-hub/voicecraft/pkg/response"
)

// RequireSession guards the authenticated views. The external jobs API does
// its own token verification; locally we only require that a signed-in session
// with an unexpired bearer credential exists.
func RequireSession(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if store.Identity() == nil {
			return response.Unauthorized(c, "Sign in first")
		}
		if _, ok := store.BearerToken(); !ok {
			return response.Unauthorized(c, "Session expired, sign in again")
		}
		return c.Next()
	}
}
