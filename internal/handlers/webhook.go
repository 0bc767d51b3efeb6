package handlers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
)

// Bot is one persona's dispatch engine.
type Bot interface {
	HandleMessage(ctx context.Context, phone, text string) error
}

// WebhookHandler terminates the WhatsApp webhook for both bot personas.
type WebhookHandler struct {
	verifyToken  string
	inventoryBot Bot
	invoiceBot   Bot
}

// NewWebhookHandler creates a webhook handler over the two personas.
func NewWebhookHandler(verifyToken string, inventoryBot, invoiceBot Bot) *WebhookHandler {
	return &WebhookHandler{
		verifyToken:  verifyToken,
		inventoryBot: inventoryBot,
		invoiceBot:   invoiceBot,
	}
}

// WebhookPayload is the nested Cloud API delivery envelope.
type WebhookPayload struct {
	Entry []struct {
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Messages []struct {
					ID        string `json:"id"`
					From      string `json:"from"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// InboundMessage is the flattened form the bots consume.
type InboundMessage struct {
	MessageID string
	From      string
	Type      string
	Text      string
}

// extractMessage pulls the first message out of the nested payload. Status
// updates and empty deliveries come back as not-ok.
func extractMessage(payload *WebhookPayload) (*InboundMessage, bool) {
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, msg := range change.Value.Messages {
				return &InboundMessage{
					MessageID: msg.ID,
					From:      msg.From,
					Type:      msg.Type,
					Text:      msg.Text.Body,
				}, true
			}
		}
	}
	return nil, false
}

// HandleVerification answers the provider's GET verification handshake:
// echo the challenge when the verify token matches, 403 otherwise.
func (h *WebhookHandler) HandleVerification(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && h.verifyToken != "" && token == h.verifyToken {
		return c.SendString(challenge)
	}
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": "Invalid verification token",
	})
}

// HandleInventoryWebhook processes inbound messages for the inventory bot.
func (h *WebhookHandler) HandleInventoryWebhook(c *fiber.Ctx) error {
	return h.handle(c, h.inventoryBot, "inventory")
}

// HandleInvoiceWebhook processes inbound messages for the invoice bot.
func (h *WebhookHandler) HandleInvoiceWebhook(c *fiber.Ctx) error {
	return h.handle(c, h.invoiceBot, "invoice")
}

func (h *WebhookHandler) handle(c *fiber.Ctx, bot Bot, persona string) error {
	var payload WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing %s webhook: %v", persona, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	msg, ok := extractMessage(&payload)
	if !ok {
		// Status update or empty delivery; acknowledge and move on.
		return c.SendStatus(fiber.StatusOK)
	}

	log.Printf("📱 WhatsApp message for %s bot from %s: %s", persona, msg.From, msg.Text)

	// Non-text messages are acknowledged but never dispatched.
	if msg.Type == "text" && msg.From != "" && msg.Text != "" {
		if err := bot.HandleMessage(c.UserContext(), msg.From, msg.Text); err != nil {
			// Internal failures are logged; the transport still gets its 200.
			log.Printf("Error handling %s bot message %s: %v", persona, msg.MessageID, err)
		}
	}

	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload is the flat payload accepted by the development-only
// test endpoint.
type TestWebhookPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
	Bot     string `json:"bot"` // "inventory" or "invoice"
}

// HandleTestWebhook dispatches a flat test message without the provider
// envelope (for development).
func (h *WebhookHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	bot := h.inventoryBot
	if payload.Bot == "invoice" {
		bot = h.invoiceBot
	}

	log.Printf("🧪 Test webhook from %s (%s bot): %s", payload.From, payload.Bot, payload.Message)

	if err := bot.HandleMessage(c.UserContext(), payload.From, payload.Message); err != nil {
		log.Printf("Error handling test message: %v", err)
	}

	return c.JSON(fiber.Map{"success": true})
}
