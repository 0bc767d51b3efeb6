package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	mu       sync.Mutex
	messages []string
	phones   []string
}

func (b *fakeBot) HandleMessage(_ context.Context, phone, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.phones = append(b.phones, phone)
	b.messages = append(b.messages, text)
	return nil
}

func newWebhookApp(verifyToken string) (*fiber.App, *fakeBot, *fakeBot) {
	inventory := &fakeBot{}
	invoice := &fakeBot{}
	h := NewWebhookHandler(verifyToken, inventory, invoice)

	app := fiber.New()
	app.Get("/webhook/inventory", h.HandleVerification)
	app.Post("/webhook/inventory", h.HandleInventoryWebhook)
	app.Get("/webhook/invoice", h.HandleVerification)
	app.Post("/webhook/invoice", h.HandleInvoiceWebhook)
	app.Post("/test/whatsapp", h.HandleTestWebhook)
	return app, inventory, invoice
}

func cloudPayload(from, text string) []byte {
	payload := fmt.Sprintf(`{
		"entry": [{
			"changes": [{
				"field": "messages",
				"value": {
					"messages": [{
						"id": "wamid.test",
						"from": %q,
						"timestamp": "1700000000",
						"type": "text",
						"text": {"body": %q}
					}]
				}
			}]
		}]
	}`, from, text)
	return []byte(payload)
}

func TestVerificationEchoesChallenge(t *testing.T) {
	app, _, _ := newWebhookApp("verify-me")

	req := httptest.NewRequest(http.MethodGet,
		"/webhook/inventory?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "12345", string(body))
}

func TestVerificationRejectsWrongToken(t *testing.T) {
	app, _, _ := newWebhookApp("verify-me")

	req := httptest.NewRequest(http.MethodGet,
		"/webhook/inventory?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=12345", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestVerificationRejectsWrongMode(t *testing.T) {
	app, _, _ := newWebhookApp("verify-me")

	req := httptest.NewRequest(http.MethodGet,
		"/webhook/invoice?hub.mode=unsubscribe&hub.verify_token=verify-me&hub.challenge=12345", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// An empty configured token must never verify, even against an empty query.
func TestVerificationRejectsEmptyToken(t *testing.T) {
	app, _, _ := newWebhookApp("")

	req := httptest.NewRequest(http.MethodGet,
		"/webhook/inventory?hub.mode=subscribe&hub.verify_token=&hub.challenge=12345", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebhookDispatchesToCorrectPersona(t *testing.T) {
	app, inventory, invoice := newWebhookApp("verify-me")

	req := httptest.NewRequest(http.MethodPost, "/webhook/inventory",
		bytes.NewReader(cloudPayload("919876543210", "view")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, inventory.messages, 1)
	assert.Equal(t, "view", inventory.messages[0])
	assert.Equal(t, "919876543210", inventory.phones[0])
	assert.Empty(t, invoice.messages)

	req = httptest.NewRequest(http.MethodPost, "/webhook/invoice",
		bytes.NewReader(cloudPayload("919876543210", "success")))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, invoice.messages, 1)
	assert.Equal(t, "success", invoice.messages[0])
}

func TestWebhookAcknowledgesStatusUpdates(t *testing.T) {
	app, inventory, _ := newWebhookApp("verify-me")

	// A delivery without messages (e.g. a status change) still gets 200.
	body := []byte(`{"entry":[{"changes":[{"field":"statuses","value":{}}]}]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/inventory", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, inventory.messages)
}

func TestWebhookIgnoresNonTextMessages(t *testing.T) {
	app, inventory, _ := newWebhookApp("verify-me")

	body := []byte(`{"entry":[{"changes":[{"field":"messages","value":{"messages":[
		{"id":"wamid.img","from":"919876543210","type":"image","text":{"body":""}}
	]}}]}]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/inventory", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, inventory.messages)
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	app, _, _ := newWebhookApp("verify-me")

	req := httptest.NewRequest(http.MethodPost, "/webhook/inventory",
		bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTestWebhookRoutesByBotField(t *testing.T) {
	app, inventory, invoice := newWebhookApp("verify-me")

	body, err := json.Marshal(TestWebhookPayload{
		From:    "919876543210",
		Message: "Raghav: Pencils: 2",
		Bot:     "invoice",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/test/whatsapp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, invoice.messages, 1)
	assert.Equal(t, "Raghav: Pencils: 2", invoice.messages[0])
	assert.Empty(t, inventory.messages)
}
