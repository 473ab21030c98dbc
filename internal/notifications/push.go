package notifications

import (
	"context"
	"fmt"

	"carwash/pkg/kafka"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

type Push struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

type PushSender interface {
	Send(ctx context.Context, push Push) error
}

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type FCMSender struct {
	client messagingClient
}

func NewFCMSender(ctx context.Context, app *firebase.App) (*FCMSender, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open messaging client: %w", err)
	}
	return &FCMSender{client: client}, nil
}

func (f *FCMSender) Send(ctx context.Context, push Push) error {
	_, err := f.client.Send(ctx, &messaging.Message{
		Token: push.Token,
		Notification: &messaging.Notification{
			Title: push.Title,
			Body:  push.Body,
		},
		Data: push.Data,
	})
	if err == nil {
		return nil
	}
	// A stale or foreign token will never succeed.
	if messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err) || messaging.IsSenderIDMismatch(err) {
		return kafka.NewPermanentError("fcm rejected token", err)
	}
	return kafka.NewTransientError("fcm send failed", err)
}
