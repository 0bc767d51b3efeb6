package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// WhatsAppClient talks to the WhatsApp Cloud API. One client serves both bot
// personas; each persona gets a Messenger bound to its own phone number ID.
type WhatsAppClient struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// NewWhatsAppClient creates a Cloud API client. baseURL and apiVersion come
// from configuration (e.g. "https://graph.facebook.com", "v18.0").
func NewWhatsAppClient(baseURL, apiVersion, accessToken string) (*WhatsAppClient, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("missing WhatsApp access token")
	}
	return &WhatsAppClient{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     fmt.Sprintf("%s/%s", baseURL, apiVersion),
		accessToken: accessToken,
	}, nil
}

// Messenger returns a sender bound to one persona's phone number ID.
func (c *WhatsAppClient) Messenger(phoneNumberID string) Messenger {
	return &cloudMessenger{client: c, phoneNumberID: phoneNumberID}
}

type cloudMessenger struct {
	client        *WhatsAppClient
	phoneNumberID string
}

func (m *cloudMessenger) SendText(ctx context.Context, to, message string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": message},
	}
	return m.client.post(ctx, m.phoneNumberID, to, payload)
}

func (m *cloudMessenger) SendDocument(ctx context.Context, to, link, filename, caption string) error {
	document := map[string]string{"link": link}
	if filename != "" {
		document["filename"] = filename
	}
	if caption != "" {
		document["caption"] = caption
	}
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "document",
		"document":          document,
	}
	return m.client.post(ctx, m.phoneNumberID, to, payload)
}

func (c *WhatsAppClient) post(ctx context.Context, phoneNumberID, to string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &DeliveryError{To: to, Err: err}
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{To: to, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{To: to, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &DeliveryError{
			To:  to,
			Err: fmt.Errorf("whatsapp api status %d: %s", resp.StatusCode, string(detail)),
		}
	}

	log.Printf("✅ WhatsApp message sent to %s", to)
	return nil
}
