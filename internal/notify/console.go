package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// ConsoleGateway logs messages instead of delivering them.
type ConsoleGateway struct {
	logger *slog.Logger
}

func NewConsoleGateway(logger *slog.Logger) *ConsoleGateway {
	return &ConsoleGateway{logger: logger}
}

func (g *ConsoleGateway) Send(ctx context.Context, msg Message) (string, error) {
	deliveryID := "console-" + uuid.NewString()
	g.logger.InfoContext(ctx, "console notification",
		"to", msg.To,
		"body", msg.Body,
		"media_url", msg.MediaURL,
		"delivery_id", deliveryID,
	)
	return deliveryID, nil
}
