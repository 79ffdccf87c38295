package handlers

import (
	"log"

	"game-rewards-engine/middleware"
	"game-rewards-engine/models"
	"game-rewards-engine/services"

	"github.com/gofiber/fiber/v2"
)

type adjustRequest struct {
	UserID      string `json:"user_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Reference   string `json:"reference"`
}

type resolveRequest struct {
	Applied bool `json:"applied"`
}

func SetupAdminRoutes(app *fiber.App, ledger *services.LedgerService, exchanges *services.ExchangeService) {
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	// Signed adjustment outside the daily cap; a negative amount may not
	// overdraw the account.
	admin.Post("/points/adjust", func(c *fiber.Ctx) error {
		var req adjustRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid adjust request", err)
		}
		if req.UserID == "" || req.Amount == 0 {
			return badRequest(c, "user_id and a non-zero amount are required", nil)
		}
		if req.Description == "" {
			req.Description = "admin adjustment by " + userID(c)
		}
		res, err := ledger.Credit(services.CreditRequest{
			UserID:      req.UserID,
			Amount:      req.Amount,
			Source:      models.SourceAdminAdjust,
			Description: req.Description,
			Reference:   req.Reference,
		})
		if err != nil {
			return writeError(c, err)
		}
		log.Printf("🛠️ [ADMIN] %s adjusted %s by %d (balance %d)", userID(c), req.UserID, req.Amount, res.Balance)
		return c.JSON(res)
	})

	admin.Get("/exchanges/uncertain", func(c *fiber.Ctx) error {
		recs, err := exchanges.ListUncertain()
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"exchanges": recs})
	})

	admin.Post("/exchanges/:id/resolve", func(c *fiber.Ctx) error {
		var req resolveRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid resolve request", err)
		}
		rec, err := exchanges.Resolve(c.Params("id"), req.Applied)
		if err != nil {
			return writeError(c, err)
		}
		log.Printf("🛠️ [ADMIN] %s resolved exchange %s applied=%t", userID(c), rec.ID, req.Applied)
		return c.JSON(rec)
	})
}
