package push

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

const fcmSendURL = "https://fcm.googleapis.com/fcm/send"

// FCMClient is the production Provider backed by the FCM HTTP API
type FCMClient struct {
	http      *resty.Client
	serverKey string
}

// NewFCMClient creates a new FCM provider client
func NewFCMClient(serverKey string) *FCMClient {
	return &FCMClient{
		http:      resty.New(),
		serverKey: serverKey,
	}
}

type fcmRequest struct {
	RegistrationIDs []string        `json:"registration_ids"`
	Notification    fcmNotification `json:"notification"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// SendMulticast delivers one notification to up to 500 tokens in a single
// provider call
func (c *FCMClient) SendMulticast(ctx context.Context, tokens []string, title, body string) (int, int, error) {
	var result fcmResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "key="+c.serverKey).
		SetBody(fcmRequest{
			RegistrationIDs: tokens,
			Notification:    fcmNotification{Title: title, Body: body},
		}).
		SetResult(&result).
		Post(fcmSendURL)
	if err != nil {
		return 0, 0, fmt.Errorf("fcm request failed: %w", err)
	}
	if resp.IsError() {
		return 0, 0, fmt.Errorf("fcm returned status %d", resp.StatusCode())
	}

	return result.Success, result.Failure, nil
}
