package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// Notification is the content of a push reminder
type Notification struct {
	Title string
	Body  string
	Data  map[string]string // Custom data payload, e.g. item_id
	Link  string            // URL opened when the notification is clicked
}

// Sender is what reminder delivery needs from push messaging
type Sender interface {
	// SendToDevices returns the tokens that failed to receive the notification
	SendToDevices(ctx context.Context, tokens []string, n Notification) ([]string, error)
}

// Client wraps Firebase Cloud Messaging functionality
type Client struct {
	messagingClient *messaging.Client
}

// NewClient creates a new FCM client using the provided credentials file
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Info().Msg("[FCM] Client initialized")
	return &Client{messagingClient: messagingClient}, nil
}

// BuildMulticast renders a notification for a set of device tokens
func BuildMulticast(tokens []string, n Notification) *messaging.MulticastMessage {
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: n.Title,
				Body:  n.Body,
				Icon:  "/icon-192.svg",
			},
		},
	}
	if n.Link != "" {
		msg.Webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: n.Link}
	}
	return msg
}

// SendToDevices sends a push notification to multiple device tokens
func (c *Client) SendToDevices(ctx context.Context, tokens []string, n Notification) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	response, err := c.messagingClient.SendEachForMulticast(ctx, BuildMulticast(tokens, n))
	if err != nil {
		return nil, fmt.Errorf("failed to send FCM multicast message: %w", err)
	}

	log.Debug().Int("success", response.SuccessCount).Int("failure", response.FailureCount).Msg("[FCM] Multicast sent")

	var failed []string
	for i, resp := range response.Responses {
		if !resp.Success {
			failed = append(failed, tokens[i])
			log.Warn().Err(resp.Error).Str("token", redact(tokens[i])).Msg("[FCM] Delivery failed")
		}
	}
	return failed, nil
}

func redact(token string) string {
	if len(token) <= 12 {
		return "***"
	}
	return token[:12] + "..."
}
