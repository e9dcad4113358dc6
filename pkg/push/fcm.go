package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMProvider delivers push notifications through Firebase Cloud Messaging
type FCMProvider struct {
	client *messaging.Client
}

// NewFCMProvider creates an FCM provider for the given project.
// credentialsFile may be empty, in which case application default
// credentials are used.
func NewFCMProvider(ctx context.Context, projectID, credentialsFile string) (*FCMProvider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}

	return &FCMProvider{client: client}, nil
}

// Send delivers a notification to the device identified by its FCM token
func (p *FCMProvider) Send(ctx context.Context, n *Notification) error {
	msg := &messaging.Message{
		Token: n.Token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
	}

	if _, err := p.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}

	return nil
}
