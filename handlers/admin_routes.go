// handlers/admin_routes.go
package handlers

import (
	"strconv"

	"quiz-progression-system/middleware"
	"quiz-progression-system/models"
	"quiz-progression-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes wires the admin command surface. The middleware only
// attaches the actor's identity; AdminAuthority inside the services makes
// the actual authorization call.
func SetupAdminRoutes(app *fiber.App, admins *services.AdminService, players *services.PlayerService, referrals *services.ReferralService) {
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware())

	actor := func(c *fiber.Ctx) string {
		id, _ := c.Locals("user_id").(string)
		return id
	}

	adminGroup.Post("/bonus", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			Amount int64  `json:"amount"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		p, err := admins.GrantBonus(c.Context(), actor(c), req.UserID, req.Amount)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "player": p})
	})

	adminGroup.Post("/tier", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			Tier   string `json:"tier"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		p, err := admins.SetTier(c.Context(), actor(c), req.UserID, models.Tier(req.Tier))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "player": p})
	})

	adminGroup.Post("/premium", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		p, err := admins.SetPremium(c.Context(), actor(c), req.UserID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "player": p})
	})

	adminGroup.Post("/admin", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			Grant  bool   `json:"grant"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		p, err := admins.SetAdmin(c.Context(), actor(c), req.UserID, req.Grant)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "player": p})
	})

	adminGroup.Get("/search", func(c *fiber.Ctx) error {
		if ok, err := admins.IsAuthorized(c.Context(), actor(c)); err != nil || !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not admin"})
		}
		limit, _ := strconv.Atoi(c.Query("limit", "10"))
		results, err := players.Search(c.Context(), c.Query("q"), limit)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(results)
	})

	adminGroup.Get("/player/:id", func(c *fiber.Ctx) error {
		if ok, err := admins.IsAuthorized(c.Context(), actor(c)); err != nil || !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not admin"})
		}
		p, err := players.GetPlayer(c.Context(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"player":               p,
			"accuracy":             p.Accuracy(),
			"progress":             players.Progress(p),
			"referral_count":       len(p.Referrals),
			"daily_referral_count": referrals.DailyCount(p),
		})
	})

	adminGroup.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := admins.Stats(c.Context(), actor(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(stats)
	})

	adminGroup.Post("/broadcast", func(c *fiber.Ctx) error {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		sent, failed, err := admins.Broadcast(c.Context(), actor(c), req.Text)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"sent": sent, "failed": failed})
	})
}
