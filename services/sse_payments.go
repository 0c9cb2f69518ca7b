package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"quiz-progression-system/models"

	"github.com/gofiber/fiber/v2"
)

// StreamPaymentStatusSSE streams status changes for one payment request so
// the mini app can wait for the admin's verdict without polling. The
// stream emits an event per status change and closes once the request is
// terminal or the client disconnects.
func (s *PaymentService) StreamPaymentStatusSSE(c *fiber.Ctx) error {
	requestID := c.Query("request_id")
	if requestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "request_id query parameter required",
		})
	}

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	ctx := c.Context()
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		s.streamPaymentEvents(ctx, w, requestID, 2*time.Second)
	})

	return nil
}

// streamPaymentEvents polls the request and writes SSE frames until the
// request turns terminal, disappears, or ctx is done (client gone).
func (s *PaymentService) streamPaymentEvents(ctx context.Context, w *bufio.Writer, requestID string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastStatus models.PaymentStatus

	emit := func(pr *models.PaymentRequest) bool {
		payload, _ := json.Marshal(fiber.Map{
			"id":     pr.ID,
			"status": pr.Status,
			"kind":   pr.Kind,
		})
		fmt.Fprintf(w, "event: payment\ndata: %s\n\n", payload)
		if err := w.Flush(); err != nil {
			return false
		}
		lastStatus = pr.Status
		return true
	}

	// Initial keepalive (comment event)
	w.WriteString(":\n\n")
	if err := w.Flush(); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pr, err := s.payments.Get(ctx, requestID)
			if err != nil {
				log.Printf("SSE query error for payment %s: %v", requestID, err)
				continue
			}
			if pr == nil {
				return
			}
			if pr.Status != lastStatus {
				if !emit(pr) {
					return
				}
			}
			if pr.Terminal() {
				return
			}
		}
	}
}
