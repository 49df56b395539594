package leads

import (
	"context"

	"go.uber.org/zap"
)

// Notifier announces a lead that has already been stored.
type Notifier interface {
	Notify(ctx context.Context, lead Lead) error
}

// Notifying wraps a Sink and fires the notifier after each successful write.
// Notification errors are logged only; the write outcome is returned as is.
type Notifying struct {
	Sink     Sink
	Notifier Notifier
	Logger   *zap.Logger
}

func (n Notifying) Name() string { return n.Sink.Name() }

func (n Notifying) Ping(ctx context.Context) error { return Ping(ctx, n.Sink) }

func (n Notifying) Record(ctx context.Context, lead Lead) Outcome {
	out := n.Sink.Record(ctx, lead)
	if !out.OK() || n.Notifier == nil {
		return out
	}
	if err := n.Notifier.Notify(ctx, lead); err != nil && n.Logger != nil {
		n.Logger.Warn("lead notification failed",
			zap.String("lead_id", out.ID),
			zap.Error(err),
		)
	}
	return out
}
