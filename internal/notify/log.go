package notify

import (
	"context"

	"github.com/dropDatabas3/simguard/internal/observability/logger"
)

// LogNotifier no entrega nada: deja el código en el log (solo dev).
type LogNotifier struct {
	channel string
}

func NewLogNotifier(channel string) *LogNotifier {
	if channel == "" {
		channel = "log"
	}
	return &LogNotifier{channel: channel}
}

func (n *LogNotifier) Channel() string { return n.channel }

func (n *LogNotifier) Deliver(ctx context.Context, d Delivery) error {
	logger.From(ctx).Warn("DEV challenge code (not delivered)",
		logger.ChallengeID(d.Challenge.ID),
		logger.String("destination", maskDestination(d.Destination)),
		logger.String("code", d.Secret),
		logger.String("link", d.Link),
	)
	return nil
}
