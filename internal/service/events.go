package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
)

const publishTimeout = 5 * time.Second

// publish sends an event after the state change it describes has been
// committed. Delivery failures are logged and never fail the operation.
func publish(ctx context.Context, p events.Publisher, topic, key string, event any) {
	if p == nil {
		return
	}
	l := logging.FromContext(ctx)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.Publish(ctx, topic, key, event); err != nil {
		l.Warn("publish_event_error", "topic", topic, "key", key, "error", err)
	}
}
