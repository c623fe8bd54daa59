package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/static"

	"github.com/snoofz/snofbase/internal/logging"
	"github.com/snoofz/snofbase/internal/server/chat"
	"github.com/snoofz/snofbase/internal/server/identity"
)

// The original frontend uploads avatars inline, so the body limit is sized
// for image payloads, not form text.
const maxBodySize = 50 * 1024 * 1024

// Options carries the HTTP-surface settings out of the server config.
type Options struct {
	SessionSecret []byte
	SessionTTL    time.Duration
	PublicDir     string
}

// NewApp assembles the fiber application: public auth endpoints,
// session-guarded profile and chat endpoints, and the static frontend.
func NewApp(identitySvc *identity.Service, board *chat.Board, logger logging.Logger, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: maxBodySize,
	})

	h := NewHandler(identitySvc, board, logger, opts.SessionSecret, opts.SessionTTL)

	api := app.Group("/api")
	api.Post("/register", h.register)
	api.Post("/verify", h.verify)
	api.Post("/login", h.login)
	api.Post("/logout", h.logout)
	api.Post("/request-reset", h.requestReset)
	api.Post("/reset-password", h.resetPassword)

	guarded := api.Group("", requireSession(opts.SessionSecret))
	guarded.Post("/profile", h.profile)
	guarded.Get("/chat/messages", h.chatMessages)
	guarded.Post("/chat/messages", h.postChatMessage)

	if opts.PublicDir != "" {
		app.Get("/*", static.New(opts.PublicDir))
	}

	return app
}
