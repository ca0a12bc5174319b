// Package webapi assembles the HTTP surface over the conversion core. It is
// a thin consumer of the repository and preference service, the same narrow
// interface a GUI client would use.
package webapi

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/fxpocket/fxpocket/pkg/repository"
	"github.com/fxpocket/fxpocket/pkg/service/prefs"
	"github.com/fxpocket/fxpocket/pkg/store"
)

// Deps bundles what the HTTP layer consumes.
type Deps struct {
	Repo   *repository.RatesRepository
	Prefs  *prefs.Service
	Store  store.Store
	Logger *slog.Logger
}

// New builds the fiber application with all routes registered.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "fxpocket",
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return SuccessResponseJSON(c, fiber.StatusOK, "ok", nil)
	})

	RateRoutes(app, deps.Repo, deps.Store)
	PreferenceRoutes(app, deps.Prefs)

	return app
}
