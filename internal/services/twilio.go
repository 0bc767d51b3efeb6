package services

import (
	"context"
	"fmt"
	"log"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioService sends WhatsApp messages through Twilio. It is the alternative
// delivery provider, selected with WHATSAPP_PROVIDER=twilio; both personas
// share one sending number.
type TwilioService struct {
	client *twilio.RestClient
	from   string // Format: "whatsapp:+14155238886"
}

// NewTwilioService creates a new Twilio service instance.
func NewTwilioService(accountSID, authToken, from string) (*TwilioService, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioService{client: client, from: from}, nil
}

// SendText sends a WhatsApp text message via Twilio.
func (t *TwilioService) SendText(_ context.Context, to, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return &DeliveryError{To: to, Err: err}
	}

	log.Printf("✅ WhatsApp message sent! SID: %s", *resp.Sid)
	return nil
}

// SendDocument sends a document by URL via Twilio media attachment.
func (t *TwilioService) SendDocument(_ context.Context, to, link, _, caption string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetBody(caption)
	params.SetMediaUrl([]string{link})

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return &DeliveryError{To: to, Err: err}
	}

	log.Printf("✅ WhatsApp document sent! SID: %s", *resp.Sid)
	return nil
}
