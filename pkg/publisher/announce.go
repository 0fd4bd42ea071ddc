package publisher

import (
	"context"

	"go.uber.org/zap"
)

// Announce publishes event on p and logs failures instead of returning them.
// A created post stays created even when the event stream is unavailable.
func Announce(ctx context.Context, p Publisher, logger *zap.Logger, event *Event) {
	if p == nil || event == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := p.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish post event",
			zap.String("post_urn", event.PostURN),
			zap.Error(err),
		)
		return
	}

	logger.Debug("published post event", zap.String("post_urn", event.PostURN))
}
