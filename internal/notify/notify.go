// Package notify entrega el código de un challenge por el canal que eligió
// el miembro: email (SMTP), SMS al teléfono alternativo, o solo log en dev.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/metrics"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
)

var (
	ErrNoChannel  = errors.New("notify: no channel configured for method")
	ErrSendFailed = errors.New("notify: send failed")
)

// Delivery es lo que se entrega al miembro. Secret es el código en claro,
// vive solo durante la entrega.
type Delivery struct {
	Challenge   *types.Challenge
	Secret      string
	Destination string
	Link        string
}

// Notifier entrega a un destino concreto.
type Notifier interface {
	Channel() string
	Deliver(ctx context.Context, d Delivery) error
}

// DestinationResolver resuelve email/teléfono alternativo del miembro.
type DestinationResolver interface {
	Destination(ctx context.Context, phone string, m types.VerificationMethod) (string, error)
}

// Router elige el Notifier según el método del challenge.
type Router struct {
	resolver DestinationResolver
	channels map[types.VerificationMethod]Notifier
}

func NewRouter(resolver DestinationResolver) *Router {
	return &Router{resolver: resolver, channels: map[types.VerificationMethod]Notifier{}}
}

// Handle registra el canal para un método.
func (r *Router) Handle(m types.VerificationMethod, n Notifier) *Router {
	r.channels[m] = n
	return r
}

// Notify entrega el secreto del challenge. security_questions no tiene
// nada que entregar.
func (r *Router) Notify(ctx context.Context, ch *types.Challenge, secret, link string) error {
	if ch == nil || !ch.Method.UsesCode() {
		return nil
	}
	n, ok := r.channels[ch.Method]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoChannel, ch.Method)
	}
	dest, err := r.resolver.Destination(ctx, ch.PhoneNumber, ch.Method)
	if err != nil {
		metrics.NotificationsSent.WithLabelValues(n.Channel(), "no_destination").Inc()
		return err
	}

	log := logger.From(ctx).With(
		logger.Component("notify"),
		logger.ChallengeID(ch.ID),
		logger.String("channel", n.Channel()),
	)
	start := time.Now()
	err = n.Deliver(ctx, Delivery{Challenge: ch, Secret: secret, Destination: dest, Link: link})
	if err != nil {
		metrics.NotificationsSent.WithLabelValues(n.Channel(), "error").Inc()
		log.Warn("challenge delivery failed", logger.Err(err), logger.Duration(time.Since(start)))
		return err
	}
	metrics.NotificationsSent.WithLabelValues(n.Channel(), "ok").Inc()
	log.Info("challenge delivered", logger.Duration(time.Since(start)))
	return nil
}
