// handlers/payment_routes.go
package handlers

import (
	"log"

	"quiz-progression-system/middleware"
	"quiz-progression-system/models"
	"quiz-progression-system/services"
	"quiz-progression-system/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupPaymentRoutes(app *fiber.App, payments *services.PaymentService, sseToken string) {
	app.Post("/api/submit-payment", func(c *fiber.Ctx) error {
		var req struct {
			ID         string `json:"id"`
			UserID     string `json:"user_id"`
			Kind       string `json:"kind"`
			TargetTier string `json:"target_tier"`
			Amount     string `json:"amount"`
			Product    string `json:"product"`
			Screenshot string `json:"screenshot"` // base64 data URL
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}

		// Proof upload is best effort: a request without a stored receipt
		// still reaches the admin, matching the no-screenshot path.
		proofURL := ""
		if req.Screenshot != "" {
			url, err := utils.UploadProofImage(c.Context(), req.UserID, req.Screenshot)
			if err != nil {
				log.Printf("⚠️ [PAYMENT] proof upload failed for %s: %v", req.UserID, err)
			} else {
				proofURL = url
			}
		}

		pr, err := payments.Submit(c.Context(), services.SubmitPaymentInput{
			ID:         req.ID,
			PlayerID:   req.UserID,
			Kind:       models.PaymentKind(req.Kind),
			TargetTier: models.Tier(req.TargetTier),
			Amount:     req.Amount,
			Product:    req.Product,
			ProofURL:   proofURL,
		})
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "request": pr})
	})

	resolve := func(decision services.Decision) fiber.Handler {
		return func(c *fiber.Ctx) error {
			var req struct {
				PaymentID string `json:"payment_id"`
				AdminID   string `json:"admin_id"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid JSON", "cause": err.Error(),
				})
			}
			res, err := payments.Resolve(c.Context(), req.PaymentID, decision, req.AdminID)
			if err != nil {
				return fail(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "request": res.Request})
		}
	}
	app.Post("/api/approve-payment", resolve(services.DecisionApprove))
	app.Post("/api/reject-payment", resolve(services.DecisionReject))

	app.Get("/api/admin-payments", func(c *fiber.Ctx) error {
		adminID := c.Query("admin_id")
		pending, err := payments.ListPending(c.Context(), adminID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(pending)
	})

	app.Get("/api/payment-status/stream",
		middleware.SSEAuthMiddleware(sseToken),
		payments.StreamPaymentStatusSSE)
}
