package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

// Publisher sends domain events to the message bus.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// publish is fire-and-forget: a bus outage never fails the user action.
func publish(ctx context.Context, p Publisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	event["at"] = time.Now().UTC()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "topic", topic, "type", event["type"], "error", err)
	}
}
