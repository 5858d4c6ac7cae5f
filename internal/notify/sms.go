package notify

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/simguard/internal/observability/logger"
	"github.com/dropDatabas3/simguard/internal/simswap"
)

// SMSNotifier envía el código al teléfono alternativo por el gateway telecom.
type SMSNotifier struct {
	messenger simswap.Messenger
	sender    string
}

// NewSMSNotifier; sender es el nombre que se muestra en el cuerpo.
func NewSMSNotifier(m simswap.Messenger, sender string) *SMSNotifier {
	if sender == "" {
		sender = "SimGuard"
	}
	return &SMSNotifier{messenger: m, sender: sender}
}

func (n *SMSNotifier) Channel() string { return "sms" }

func (n *SMSNotifier) Deliver(ctx context.Context, d Delivery) error {
	body := fmt.Sprintf("%s: your payment verification code is %s. It expires at %s UTC. Do not share it.",
		n.sender, d.Secret, d.Challenge.ExpiresAt.UTC().Format("15:04"))
	rcpt, err := n.messenger.SendSMS(ctx, d.Destination, body)
	if err != nil {
		return fmt.Errorf("%w: sms: %w", ErrSendFailed, err)
	}
	logger.From(ctx).Debug("sms queued",
		logger.String("message_id", rcpt.MessageID),
		logger.String("gateway_status", rcpt.Status),
	)
	return nil
}
