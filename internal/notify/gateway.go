package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Gateway is the best-effort front of a Notifier: failures are logged and
// reported as false, never returned or retried.
type Gateway struct {
	Logger   *zap.Logger
	Notifier Notifier
	Timeout  time.Duration
}

func NewGateway(logger *zap.Logger, n Notifier, timeout time.Duration) *Gateway {
	if n == nil {
		n = Nop{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{Logger: logger, Notifier: n, Timeout: timeout}
}

func (g *Gateway) Notify(ctx context.Context, message string) (ok bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			g.Logger.Error("notify_panic", zap.Any("panic", r), zap.String("message", message))
			ok = false
		}
	}()

	if err := g.Notifier.Send(ctx, message); err != nil {
		g.Logger.Error("notify_error", zap.String("message", message), zap.Error(err))
		return false
	}
	g.Logger.Info("notify_sent", zap.String("message", message))
	return true
}
