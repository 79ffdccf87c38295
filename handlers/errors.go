package handlers

import (
	"errors"
	"log"

	"game-rewards-engine/games"
	"game-rewards-engine/services"

	"github.com/gofiber/fiber/v2"
)

// writeError maps service errors onto status codes. Anything unrecognized is
// a 500 the client may retry.
func writeError(c *fiber.Ctx, err error) error {
	var cd *services.CooldownError
	if errors.As(err, &cd) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":        err.Error(),
			"code":         "cooldown_active",
			"remaining_ms": cd.Remaining.Milliseconds(),
		})
	}

	status, code := fiber.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, services.ErrAlreadyActive):
		status, code = fiber.StatusConflict, "already_active"
	case errors.Is(err, services.ErrNotActive):
		status, code = fiber.StatusConflict, "not_active"
	case errors.Is(err, services.ErrSessionNotFound):
		status, code = fiber.StatusNotFound, "session_not_found"
	case errors.Is(err, services.ErrSessionExpired):
		status, code = fiber.StatusGone, "session_expired"
	case errors.Is(err, services.ErrUnknownGameKind), errors.Is(err, games.ErrUnknownKind):
		status, code = fiber.StatusNotFound, "unknown_game"
	case errors.Is(err, games.ErrUnknownDifficulty):
		status, code = fiber.StatusBadRequest, "unknown_difficulty"
	case errors.Is(err, games.ErrInvalidMoveLog):
		status, code = fiber.StatusBadRequest, "invalid_move_log"
	case errors.Is(err, services.ErrNotSessionGame):
		status, code = fiber.StatusBadRequest, "not_session_game"
	case errors.Is(err, services.ErrInsufficientBalance):
		status, code = fiber.StatusBadRequest, "insufficient_balance"
	case errors.Is(err, services.ErrInvalidAmount):
		status, code = fiber.StatusBadRequest, "invalid_amount"
	case errors.Is(err, services.ErrDuplicateCredit):
		status, code = fiber.StatusConflict, "duplicate_reference"
	case errors.Is(err, services.ErrExchangeNotFound):
		status, code = fiber.StatusNotFound, "exchange_not_found"
	case errors.Is(err, services.ErrExchangeSettled):
		status, code = fiber.StatusConflict, "exchange_settled"
	case errors.Is(err, services.ErrExchangeDisabled):
		status, code = fiber.StatusServiceUnavailable, "exchange_disabled"
	}

	if status == fiber.StatusInternalServerError {
		log.Printf("❌ [API] %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(status).JSON(fiber.Map{
			"error":     "internal error",
			"code":      code,
			"cause":     err.Error(),
			"retryable": true,
		})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error(), "code": code})
}

func badRequest(c *fiber.Ctx, msg string, cause error) error {
	body := fiber.Map{"error": msg, "code": "invalid_request"}
	if cause != nil {
		body["cause"] = cause.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

// parseBody tolerates an empty body so clients may POST without one.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(out)
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
