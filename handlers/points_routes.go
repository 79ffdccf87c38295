package handlers

import (
	"game-rewards-engine/middleware"
	"game-rewards-engine/services"

	"github.com/gofiber/fiber/v2"
)

type exchangeRequest struct {
	Points int64 `json:"points"`
}

func SetupPointsRoutes(app *fiber.App, ledger *services.LedgerService, exchanges *services.ExchangeService) {
	secured := app.Group("/points", middleware.UserContextMiddleware())

	secured.Get("/balance", func(c *fiber.Ctx) error {
		uid := userID(c)
		balance, err := ledger.Balance(uid)
		if err != nil {
			return writeError(c, err)
		}
		daily, err := ledger.TodayStats(uid, ledger.Now())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{
			"balance": balance,
			"dailyStats": services.DailyView{
				GamesPlayed:  daily.GamesPlayed,
				PointsEarned: daily.PointsEarned,
			},
			"dailyLimit":         ledger.DailyCap,
			"pointsLimitReached": daily.PointsEarned >= ledger.DailyCap,
		})
	})

	secured.Get("/ledger", func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		limit := c.QueryInt("limit", 20)
		entries, total, err := ledger.History(userID(c), page, limit)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{
			"entries": entries,
			"total":   total,
			"page":    page,
		})
	})

	secured.Get("/stream", ledger.StreamLedgerSSE)

	secured.Post("/exchange", func(c *fiber.Ctx) error {
		var req exchangeRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid exchange request", err)
		}
		rec, err := exchanges.Exchange(c.UserContext(), userID(c), req.Points)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(rec)
	})

	secured.Get("/exchanges", func(c *fiber.Ctx) error {
		recs, err := exchanges.List(userID(c), c.QueryInt("limit", 20))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"exchanges": recs})
	})
}
