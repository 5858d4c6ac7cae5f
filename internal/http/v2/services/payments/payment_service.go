// Package payments contiene el service de pagos protegidos por el gate.
package payments

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/gate"
	dto "github.com/dropDatabas3/simguard/internal/http/v2/dto/payments"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
)

// Authorizer es el gate de pagos.
type Authorizer interface {
	Authorize(ctx context.Context, req gate.Request) (gate.Decision, error)
}

type PaymentService interface {
	// SecurePayment evalúa el pago. operator identifica a quien pidió un bypass.
	SecurePayment(ctx context.Context, req dto.SecurePaymentRequest, operator string) (dto.SecurePaymentResponse, error)
}

type paymentService struct {
	gate Authorizer
}

func NewPaymentService(g Authorizer) PaymentService {
	return &paymentService{gate: g}
}

func (s *paymentService) SecurePayment(ctx context.Context, req dto.SecurePaymentRequest, operator string) (dto.SecurePaymentResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("payments"), logger.Op("SecurePayment"))

	paymentID := strings.TrimSpace(req.PaymentID)
	if paymentID == "" {
		paymentID = uuid.NewString()
	}

	d, err := s.gate.Authorize(ctx, gate.Request{
		PaymentAttemptID: paymentID,
		PhoneNumber:      req.PhoneNumber,
		Amount:           req.Amount,
		WorkerID:         req.WorkerID,
		Options: gate.Options{
			BypassSimSwapCheck: req.BypassSimSwapCheck,
			Method:             types.VerificationMethod(req.VerificationMethod),
			Operator:           operator,
		},
	})
	if err != nil {
		return dto.SecurePaymentResponse{}, err
	}

	out := dto.SecurePaymentResponse{
		Success:            d.Kind == gate.Authorized,
		PaymentID:          paymentID,
		SimSwapDetected:    d.Tier.RequiresChallenge(),
		VerificationMethod: string(d.Method),
		VerificationURL:    d.VerificationURL,
		ChallengeID:        d.ChallengeID,
		ExpiresAt:          d.ExpiresAt,
		AttemptsRemaining:  d.AttemptsRemaining,
		SecurityChecks: dto.SecurityChecks{
			SimSwapChecked: d.Assessment != nil,
			RiskLevel:      string(d.Tier),
			Degraded:       d.Degraded,
			Bypassed:       d.Reason == gate.ReasonOperatorBypass,
			Decision:       string(d.Kind),
			Reason:         d.Reason,
		},
	}
	if d.Assessment != nil {
		out.SecurityChecks.DaysSinceSwap = d.Assessment.DaysSinceSwap
		out.SecurityChecks.Reasons = d.Assessment.Reasons
	}
	switch d.Kind {
	case gate.Authorized:
		out.Status = dto.StatusPending
	case gate.VerificationRequired:
		out.Status = dto.StatusVerificationRequired
		for _, m := range d.AllowedMethods {
			out.VerificationOptions = append(out.VerificationOptions, string(m))
		}
	default:
		out.Status = dto.StatusBlocked
	}

	log.Info("secure payment evaluated",
		logger.PaymentAttempt(paymentID), logger.Decision(string(d.Kind)), logger.String("reason", d.Reason))
	return out, nil
}
