// Package email delivers transactional mail through SendGrid.
package email

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

const sendGridMailURL = "https://api.sendgrid.com/v3/mail/send"

// Sender delivers one HTML email
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SendGridClient is the production Sender
type SendGridClient struct {
	http   *resty.Client
	apiKey string
	from   string
}

// NewSendGridClient creates a new SendGrid sender
func NewSendGridClient(apiKey, senderAddress string) *SendGridClient {
	return &SendGridClient{
		http:   resty.New(),
		apiKey: apiKey,
		from:   senderAddress,
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

// Send delivers one HTML email
func (c *SendGridClient) Send(ctx context.Context, to, subject, htmlBody string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(sendGridRequest{
			Personalizations: []sendGridPersonalization{{To: []sendGridAddress{{Email: to}}}},
			From:             sendGridAddress{Email: c.from},
			Subject:          subject,
			Content:          []sendGridContent{{Type: "text/html", Value: htmlBody}},
		}).
		Post(sendGridMailURL)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode())
	}

	return nil
}
