package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers one outbound text message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// logNotifier writes the message to the log instead of sending it. Used
// when no chat transport is configured.
type logNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Notify(ctx context.Context, text string) error {
	n.logger.Info("notification (not sent)", zap.String("text", text))
	return nil
}

// Announce sends text and logs the result. Delivery failure never stops the caller.
func Announce(ctx context.Context, n Notifier, text string, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if n == nil {
		return
	}
	if err := n.Notify(ctx, text); err != nil {
		logger.Warn("startup notification failed", zap.Error(err))
		return
	}
	logger.Info("startup notification sent")
}
