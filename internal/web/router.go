package web

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/deanwaring-hub/voicecraft/internal/session"
	ws "github.com/deanwaring-hub/voicecraft/internal/websocket"
)

const maxBodySize = 6 * 1024 * 1024 // submission ceiling is 5 MiB plus form overhead

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth   *AuthHandler
	Upload *UploadHandler
	Jobs   *JobsHandler
	Hub    *ws.Hub
	Store  *session.Store
}

// NewApp builds the Fiber app serving the gateway views.
func NewApp(h Handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: maxBodySize,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"signedIn": h.Store.Identity() != nil,
		})
	})

	// Identity flows
	auth := app.Group("/auth")
	auth.Post("/signup", h.Auth.SignUp)
	auth.Post("/confirm", h.Auth.Confirm)
	auth.Post("/resend", h.Auth.Resend)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/logout", h.Auth.Logout)

	// Authenticated views
	api := app.Group("/api", RequireSession(h.Store))
	api.Post("/upload", h.Upload.Submit)
	api.Get("/jobs", h.Jobs.List)
	api.Get("/jobs/current", h.Jobs.Current)
	api.Delete("/jobs/:jobId", h.Jobs.Delete)
	api.Get("/jobs/:jobId/download", h.Jobs.Download)

	// Current-job transition stream
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/current", websocket.New(func(c *websocket.Conn) {
		h.Hub.HandleConnection(c)
	}))

	return app
}
