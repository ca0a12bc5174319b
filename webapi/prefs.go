package webapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fxpocket/fxpocket/pkg/domain"
	"github.com/fxpocket/fxpocket/pkg/service/prefs"
)

// PreferenceRoutes registers the preference endpoints.
func PreferenceRoutes(app *fiber.App, svc *prefs.Service) {
	group := app.Group("/api/preferences")
	group.Get("/", GetPreferences(svc))
	group.Put("/", UpdatePreferences(svc))
	group.Get("/favorites", GetFavorites(svc))
	group.Put("/favorites", SaveFavorites(svc))
	group.Post("/favorites/:code/toggle", ToggleFavorite(svc))
}

// GetPreferences returns the full preference set.
func GetPreferences(svc *prefs.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return SuccessResponseJSON(c, fiber.StatusOK, "Preferences fetched successfully", svc.All(c.Context()))
	}
}

type updatePreferencesRequest struct {
	DefaultCurrency *string `json:"default_currency"`
	Theme           *string `json:"theme"`
	Locale          *string `json:"locale"`
	AutoRefresh     *bool   `json:"auto_refresh"`
}

// UpdatePreferences applies a partial preference update; absent fields stay
// untouched.
func UpdatePreferences(svc *prefs.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req updatePreferencesRequest
		if err := c.BodyParser(&req); err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
		}

		ctx := c.Context()
		if req.DefaultCurrency != nil {
			if err := svc.SetDefaultCurrency(ctx, *req.DefaultCurrency); err != nil {
				return ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Invalid default currency", err.Error())
			}
		}
		if req.Theme != nil {
			if err := svc.SetTheme(ctx, domain.Theme(*req.Theme)); err != nil {
				return ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Invalid theme", err.Error())
			}
		}
		if req.Locale != nil {
			if err := svc.SetLocale(ctx, *req.Locale); err != nil {
				return ProblemDetailsJSON(c, "Failed to save locale", err)
			}
		}
		if req.AutoRefresh != nil {
			if err := svc.SetAutoRefresh(ctx, *req.AutoRefresh); err != nil {
				return ProblemDetailsJSON(c, "Failed to save auto-refresh", err)
			}
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Preferences updated successfully", svc.All(ctx))
	}
}

// GetFavorites returns the favorites list in insertion order.
func GetFavorites(svc *prefs.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return SuccessResponseJSON(c, fiber.StatusOK, "Favorites fetched successfully", svc.Favorites(c.Context()))
	}
}

type saveFavoritesRequest struct {
	Favorites []string `json:"favorites" validate:"required,dive,len=3,alpha"`
}

// SaveFavorites replaces the favorites list.
func SaveFavorites(svc *prefs.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req saveFavoritesRequest
		if err := c.BodyParser(&req); err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Validation failed", err.Error())
		}
		if err := svc.SaveFavorites(c.Context(), req.Favorites); err != nil {
			return ProblemDetailsJSON(c, "Failed to save favorites", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Favorites saved successfully", req.Favorites)
	}
}

// ToggleFavorite flips a single code in or out of the favorites list.
func ToggleFavorite(svc *prefs.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		favorites, err := svc.ToggleFavorite(c.Context(), c.Params("code"))
		if err != nil {
			return ProblemDetailsJSON(c, "Failed to toggle favorite", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Favorite toggled successfully", favorites)
	}
}
