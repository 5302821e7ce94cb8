package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"cvforge/internal/config"
	"cvforge/internal/errors"
	"cvforge/internal/types"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

type fakeChannel struct {
	published []published
	closed    int
	err       error
}

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

func (c *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, published{exchange, key, msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed++
	return nil
}

func discardLogger() *errors.Logger {
	return errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)
}

func TestRoutingKey(t *testing.T) {
	tests := map[string]string{
		"export":          "activity.export",
		" Template Apply": "activity.template_apply",
		"a.b*c":           "activity.a_b_c",
		"":                "activity.unknown",
	}
	for action, expected := range tests {
		if got := RoutingKey(action); got != expected {
			t.Errorf("Expected %s for %q, got %s", expected, action, got)
		}
	}
}

func TestDisabledPublisherIsNoop(t *testing.T) {
	p, err := NewPublisher(config.EventsConfig{Exchange: "cvforge.activity"}, discardLogger())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if p.Enabled() {
		t.Errorf("Expected publisher to be disabled")
	}
	if err := p.PublishActivity(context.Background(), types.Activity{Action: "export"}); err != nil {
		t.Errorf("Expected no-op publish, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Expected close to succeed, got %v", err)
	}
}

func TestPublishActivity(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher("cvforge.activity", func() (Channel, error) { return ch, nil }, discardLogger())

	userID := uuid.New()
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	err := p.PublishActivity(context.Background(), types.Activity{ID: 9, UserID: userID, Action: "export", Detail: "pdf", CreatedAt: created})
	if err != nil {
		t.Fatalf("Expected publish to succeed, got %v", err)
	}

	if len(ch.published) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(ch.published))
	}
	msg := ch.published[0]
	if msg.exchange != "cvforge.activity" || msg.key != "activity.export" {
		t.Errorf("Expected cvforge.activity/activity.export, got %s/%s", msg.exchange, msg.key)
	}
	if msg.msg.ContentType != "application/json" {
		t.Errorf("Expected JSON content type, got %s", msg.msg.ContentType)
	}

	var event ActivityEvent
	if err := json.Unmarshal(msg.msg.Body, &event); err != nil {
		t.Fatalf("Expected JSON body, got %v", err)
	}
	if event.UserID != userID.String() || event.Detail != "pdf" || event.ID != 9 {
		t.Errorf("Expected event fields to match activity, got %+v", event)
	}
	if ch.closed != 1 {
		t.Errorf("Expected channel to be closed after publish, got %d closes", ch.closed)
	}
}

func TestPublishActivityErrors(t *testing.T) {
	failing := newPublisher("x", func() (Channel, error) { return &fakeChannel{err: fmt.Errorf("blocked")}, nil }, discardLogger())
	if err := failing.PublishActivity(context.Background(), types.Activity{Action: "export"}); !errors.IsType(err, errors.ErrorTypeRemote) {
		t.Errorf("Expected remote error, got %v", err)
	}

	noChannel := newPublisher("x", func() (Channel, error) { return nil, fmt.Errorf("closed") }, discardLogger())
	if err := noChannel.PublishActivity(context.Background(), types.Activity{Action: "export"}); !errors.IsType(err, errors.ErrorTypeRemote) {
		t.Errorf("Expected remote error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok := newPublisher("x", func() (Channel, error) { return &fakeChannel{}, nil }, discardLogger())
	if err := ok.PublishActivity(ctx, types.Activity{Action: "export"}); err == nil {
		t.Errorf("Expected cancelled context to stop publish")
	}
}
