package handlers

import (
	"encoding/json"

	"game-rewards-engine/games"
	"game-rewards-engine/middleware"
	"game-rewards-engine/services"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var displayNames = map[games.Kind]string{
	games.KindPairs:   "memory pairs",
	games.KindLinkUp:  "link up",
	games.KindPinball: "pinball",
	games.KindSlots:   "slots",
}

type catalogEntry struct {
	Kind         games.Kind                        `json:"kind"`
	Name         string                            `json:"name"`
	SessionBased bool                              `json:"sessionBased"`
	CooldownMs   int64                             `json:"cooldownMs"`
	SpinCost     int64                             `json:"spinCost,omitempty"`
	Configs      map[games.Difficulty]games.Config `json:"configs,omitempty"`
}

func catalog(sessions *services.SessionService) ([]catalogEntry, error) {
	title := cases.Title(language.English)
	entries := make([]catalogEntry, 0, len(games.AllKinds))
	for _, kind := range games.AllKinds {
		entry := catalogEntry{
			Kind:         kind,
			Name:         title.String(displayNames[kind]),
			SessionBased: kind.SessionBased(),
			CooldownMs:   sessions.Cooldowns.Window(kind).Milliseconds(),
		}
		if kind.SessionBased() {
			entry.Configs = map[games.Difficulty]games.Config{}
			for _, d := range games.AllDifficulties {
				cfg, err := games.ResolveConfig(kind, d)
				if err != nil {
					return nil, err
				}
				entry.Configs[d] = cfg
			}
		} else {
			entry.SpinCost = sessions.SpinCost
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type startRequest struct {
	Difficulty string `json:"difficulty"`
}

type submitRequest struct {
	SessionID  string          `json:"sessionId"`
	MoveLog    json.RawMessage `json:"moveLog"`
	Score      int             `json:"score"`
	Completed  bool            `json:"completed"`
	DurationMs int64           `json:"durationMs"`
}

type boardRequest struct {
	SessionID string          `json:"sessionId"`
	MoveLog   json.RawMessage `json:"moveLog"`
}

type cancelRequest struct {
	SessionID string `json:"sessionId"`
}

func SetupGameRoutes(app *fiber.App, sessions *services.SessionService) {
	// Public catalog. Registered before the secured group so /games itself
	// never needs a user.
	app.Get("/games", func(c *fiber.Ctx) error {
		entries, err := catalog(sessions)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"games": entries})
	})

	// 🔐 Everything else acts on the caller's sessions.
	secured := app.Group("/games", middleware.UserContextMiddleware())

	secured.Post("/slots/spin", func(c *fiber.Ctx) error {
		res, err := sessions.Spin(userID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(res)
	})

	secured.Get("/:kind/status", func(c *fiber.Ctx) error {
		kind, err := games.ParseKind(c.Params("kind"))
		if err != nil {
			return writeError(c, err)
		}
		res, err := sessions.Status(userID(c), kind)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(res)
	})

	secured.Post("/:kind/start", func(c *fiber.Ctx) error {
		kind, err := games.ParseKind(c.Params("kind"))
		if err != nil {
			return writeError(c, err)
		}
		var req startRequest
		if err := parseBody(c, &req); err != nil {
			return badRequest(c, "invalid start request", err)
		}
		difficulty, err := games.ParseDifficulty(req.Difficulty)
		if err != nil {
			return writeError(c, err)
		}
		res, err := sessions.Start(userID(c), kind, difficulty)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	secured.Post("/:kind/submit", func(c *fiber.Ctx) error {
		kind, err := games.ParseKind(c.Params("kind"))
		if err != nil {
			return writeError(c, err)
		}
		var req submitRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid submit request", err)
		}
		if req.SessionID == "" {
			return badRequest(c, "sessionId is required", nil)
		}
		claim := games.Claim{Score: req.Score, Completed: req.Completed, DurationMs: req.DurationMs}
		res, err := sessions.Submit(userID(c), kind, req.SessionID, req.MoveLog, claim)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(res)
	})

	// Redraw after a link-up shuffle.
	secured.Post("/:kind/board", func(c *fiber.Ctx) error {
		kind, err := games.ParseKind(c.Params("kind"))
		if err != nil {
			return writeError(c, err)
		}
		var req boardRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid board request", err)
		}
		if req.SessionID == "" {
			return badRequest(c, "sessionId is required", nil)
		}
		board, err := sessions.Board(userID(c), kind, req.SessionID, req.MoveLog)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"board": board})
	})

	secured.Post("/:kind/cancel", func(c *fiber.Ctx) error {
		kind, err := games.ParseKind(c.Params("kind"))
		if err != nil {
			return writeError(c, err)
		}
		var req cancelRequest
		if err := parseBody(c, &req); err != nil {
			return badRequest(c, "invalid cancel request", err)
		}
		if err := sessions.Cancel(userID(c), kind, req.SessionID); err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true})
	})
}
