package amqp

import (
	"context"
	"log/slog"

	"hearth/internal/tracker"
)

// ForwardChanges publishes every in-process change notification to the
// changes queue, so other processes can rebuild their views. Publish
// failures are logged and dropped: consumers reload full snapshots, and a
// missed event is healed by the next one.
func ForwardChanges(ctx context.Context, c *Client, queue string, feed <-chan tracker.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case ch, ok := <-feed:
			if !ok {
				return
			}
			if err := c.Publish(ctx, queue, NewChangeMessage(ch.Collection)); err != nil {
				slog.WarnContext(ctx, "Failed to publish change event",
					"collection", ch.Collection,
					"error", err)
			}
		}
	}
}
