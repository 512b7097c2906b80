package notify

import (
	"context"
	"log/slog"
)

// LogGateway writes the SMS to the log instead of a provider. Used when no
// Fast2SMS key is configured.
type LogGateway struct {
	logger *slog.Logger
}

func NewLogGateway(logger *slog.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Send(ctx context.Context, to, message string) error {
	g.logger.InfoContext(ctx, "sms (log gateway)", "to", to, "message", message)
	return nil
}
