package kafka_middleware

import (
	"context"
	"errors"
	"testing"

	"carwash/pkg/kafka"
)

func TestMetrics_ConsumerMiddlewareCounts(t *testing.T) {
	m := NewMetrics()
	mw := m.ConsumerMiddleware()

	ok := func(ctx context.Context, msg kafka.Message) error { return nil }
	fail := func(ctx context.Context, msg kafka.Message) error { return errors.New("brevo 503") }

	_ = mw(context.Background(), kafka.Message{}, ok)
	_ = mw(context.Background(), kafka.Message{}, ok)
	if err := mw(context.Background(), kafka.Message{}, fail); err == nil {
		t.Fatal("middleware must propagate the handler error")
	}

	if got := m.MessagesConsumed.Load(); got != 2 {
		t.Errorf("MessagesConsumed = %d, want 2", got)
	}
	if got := m.MessagesConsumedFailed.Load(); got != 1 {
		t.Errorf("MessagesConsumedFailed = %d, want 1", got)
	}
}

func TestMetrics_AverageWithNoMessages(t *testing.T) {
	m := NewMetrics()
	if m.AvgPublishDuration() != 0 || m.AvgConsumeDuration() != 0 {
		t.Error("averages should be zero before any message")
	}
}
