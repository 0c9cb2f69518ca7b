// handlers/player_routes.go
package handlers

import (
	"errors"
	"strconv"

	"quiz-progression-system/services"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps the engine's deterministic rejections to HTTP statuses;
// anything else is a failed unit of work.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrAlreadyResolved):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

func SetupPlayerRoutes(app *fiber.App, players *services.PlayerService, settlement *services.SettlementService, referrals *services.ReferralService) {
	app.Get("/api/user-data", func(c *fiber.Ctx) error {
		uid := c.Query("uid")
		if uid == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "uid required"})
		}
		p, err := players.GetPlayer(c.Context(), uid)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(p)
	})

	app.Get("/api/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		entries, err := players.Leaderboard(c.Context(), limit)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(entries)
	})

	app.Post("/api/settle-round", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			services.RoundOutcome
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		res, err := settlement.SettleRound(c.Context(), req.UserID, req.RoundOutcome)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	})

	app.Post("/api/referral-signup", func(c *fiber.Ctx) error {
		var req struct {
			UserID     string `json:"user_id"`
			Name       string `json:"name"`
			ReferrerID string `json:"referrer_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		res, err := referrals.RegisterSignup(c.Context(), req.UserID, req.Name, req.ReferrerID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"player":      res.Player,
			"credited":    res.Credited,
			"bonus":       res.Bonus,
			"referrer_id": res.ReferrerID,
		})
	})

	// Legacy mini-app full-state push.
	app.Post("/api/update-stats", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			services.StatsOverwrite
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		if req.UserID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id required"})
		}
		p, err := players.OverwriteStats(c.Context(), req.UserID, req.StatsOverwrite)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "player": p})
	})
}
