package handler

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/songforge/api/pkg/response"
)

// WebhookHandler receives provider push notifications. Polling is the
// sole source of truth for job state, so the payload is only logged.
type WebhookHandler struct{}

func NewWebhookHandler() *WebhookHandler {
	return &WebhookHandler{}
}

// Receive handles POST /webhook
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	log.Printf("[Webhook] received provider callback: %s", string(c.Body()))
	return response.OK(c, fiber.Map{"success": true})
}
