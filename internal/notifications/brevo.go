package notifications

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"carwash/pkg/client"
	"carwash/pkg/kafka"
)

const brevoSendPath = "/v3/smtp/email"

type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Email struct {
	To      Recipient
	Subject string
	HTML    string
}

type EmailSender interface {
	Send(ctx context.Context, email Email) error
}

type brevoPayload struct {
	Sender      Recipient   `json:"sender"`
	To          []Recipient `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

// BrevoSender sends transactional email through the Brevo v3 API.
type BrevoSender struct {
	client *client.HttpClient
	sender Recipient
}

func NewBrevoSender(baseURL, apiKey string, sender Recipient, timeout time.Duration) *BrevoSender {
	return &BrevoSender{
		client: client.NewHttpClient(baseURL, timeout).WithHeader("api-key", apiKey),
		sender: sender,
	}
}

// Send classifies failures for the consumer: rate limiting, 5xx and transport errors are
// transient, any other rejection is permanent.
func (b *BrevoSender) Send(ctx context.Context, email Email) error {
	resp, err := b.client.POST(ctx, brevoSendPath, brevoPayload{
		Sender:      b.sender,
		To:          []Recipient{email.To},
		Subject:     email.Subject,
		HTMLContent: email.HTML,
	})
	if err != nil {
		return kafka.NewTransientError("brevo request failed", err)
	}
	if resp.IsSuccess() {
		return nil
	}

	cause := fmt.Errorf("brevo returned %d: %s", resp.StatusCode, client.GetErrorMessage(resp))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return kafka.NewTransientError("brevo unavailable", cause)
	}
	return kafka.NewPermanentError("brevo rejected email", cause)
}
