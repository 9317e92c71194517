package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"qiblaapi/internal/service"
)

// Dependencies are the collaborators the HTTP layer needs.
type Dependencies struct {
	Archives     service.ArchiveService
	Users        service.UserService
	HealthChecks []DependencyCheck
	Logger       *slog.Logger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers only translate between HTTP and the services.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	app.Get("/health", HealthCheck(log, deps.HealthChecks...))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Get("/qibla", Qibla())
	api.Post("/upload-zip", UploadZip(deps.Archives, log))
	api.Get("/get-zip", GetZip(deps.Archives, log))
	api.Post("/feed_user", FeedUser(deps.Users, log))
	api.Get("/checkuser", CheckUser(deps.Users, log))
}
