package webapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fxpocket/fxpocket/pkg/currency"
	"github.com/fxpocket/fxpocket/pkg/domain"
	"github.com/fxpocket/fxpocket/pkg/repository"
	"github.com/fxpocket/fxpocket/pkg/store"
)

// RateRoutes registers the rate and conversion endpoints.
func RateRoutes(app *fiber.App, repo *repository.RatesRepository, st store.Store) {
	api := app.Group("/api")
	api.Get("/rates/latest", GetLatestRate(repo))
	api.Get("/rates/history", GetHistoricalRates(repo))
	api.Post("/convert", Convert(repo))
	api.Delete("/cache", ClearCache(st))
	api.Delete("/cache/rates", ClearRateCache(st))
	api.Delete("/cache/history", ClearHistoryCache(st))
}

type latestRateResponse struct {
	Rate      *domain.ExchangeRate `json:"rate"`
	FromCache bool                 `json:"from_cache"`
}

func pairFromQuery(c *fiber.Ctx) (string, string, error) {
	from, err := currency.Parse(c.Query("from"))
	if err != nil {
		return "", "", err
	}
	to, err := currency.Parse(c.Query("to"))
	if err != nil {
		return "", "", err
	}
	return from, to, nil
}

// GetLatestRate returns a handler resolving the current rate for a pair.
func GetLatestRate(repo *repository.RatesRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := pairFromQuery(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Invalid currency code", err.Error())
		}

		rate, fromCache, err := repo.GetLatestRate(c.Context(), from, to)
		if err != nil {
			return ProblemDetailsJSON(c, "Failed to fetch rate", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Rate fetched successfully", latestRateResponse{
			Rate:      rate,
			FromCache: fromCache,
		})
	}
}

type historyResponse struct {
	From   string             `json:"from"`
	To     string             `json:"to"`
	Days   int                `json:"days"`
	Points []domain.RatePoint `json:"points"`
}

// GetHistoricalRates returns a handler serving the cached-or-fetched series.
func GetHistoricalRates(repo *repository.RatesRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := pairFromQuery(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Invalid currency code", err.Error())
		}
		days := c.QueryInt("days", 30)
		if days < 1 || days > 365 {
			return ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Invalid days", "days must be between 1 and 365")
		}

		points, err := repo.GetHistoricalRates(c.Context(), from, to, days)
		if err != nil {
			return ProblemDetailsJSON(c, "Failed to fetch history", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "History fetched successfully", historyResponse{
			From:   from,
			To:     to,
			Days:   days,
			Points: points,
		})
	}
}

type convertRequest struct {
	From   string  `json:"from" validate:"required"`
	To     string  `json:"to" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

type convertResponse struct {
	Result    float64              `json:"result"`
	Rate      *domain.ExchangeRate `json:"rate"`
	FromCache bool                 `json:"from_cache"`
}

// Convert returns a handler that resolves a rate and multiplies the amount,
// the same recompute rule the conversion screen applies.
func Convert(repo *repository.RatesRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req convertRequest
		if err := c.BodyParser(&req); err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Validation failed", err.Error())
		}
		from, err := currency.Parse(req.From)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Invalid currency code", req.From)
		}
		to, err := currency.Parse(req.To)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Invalid currency code", req.To)
		}

		rate, fromCache, err := repo.GetLatestRate(c.Context(), from, to)
		if err != nil {
			return ProblemDetailsJSON(c, "Failed to convert", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Converted successfully", convertResponse{
			Result:    req.Amount * rate.Rate,
			Rate:      rate,
			FromCache: fromCache,
		})
	}
}

// ClearCache wipes the entire store, preferences included.
func ClearCache(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := st.ClearAll(c.Context()); err != nil {
			return ProblemDetailsJSON(c, "Failed to clear cache", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Cache cleared", nil)
	}
}

// ClearRateCache removes cached rates only.
func ClearRateCache(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := st.ClearRates(c.Context()); err != nil {
			return ProblemDetailsJSON(c, "Failed to clear rate cache", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Rate cache cleared", nil)
	}
}

// ClearHistoryCache removes cached history only.
func ClearHistoryCache(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := st.ClearHistory(c.Context()); err != nil {
			return ProblemDetailsJSON(c, "Failed to clear history cache", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "History cache cleared", nil)
	}
}
