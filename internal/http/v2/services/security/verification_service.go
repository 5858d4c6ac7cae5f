package security

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/simguard/internal/challenge"
	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/gate"
	dto "github.com/dropDatabas3/simguard/internal/http/v2/dto/security"
	jwtx "github.com/dropDatabas3/simguard/internal/jwt"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
)

var (
	// ErrMethodMismatch: el método del request no es el del challenge.
	ErrMethodMismatch = errors.New("verification method does not match challenge")
	// ErrMissingProof: no vino code ni answers según el método.
	ErrMissingProof = errors.New("verification data missing for method")
)

// Confirmer es el subconjunto del gate usado para confirmar challenges.
type Confirmer interface {
	ConfirmVerification(ctx context.Context, challengeID string, proof challenge.Proof) (gate.Decision, error)
	Challenge(ctx context.Context, id string) (*types.Challenge, error)
}

// AttemptLookup resuelve el último challenge de un intento de pago.
type AttemptLookup interface {
	LatestForAttempt(ctx context.Context, attemptID string) (*types.Challenge, error)
}

// LinkParser valida el token del link de verificación.
type LinkParser interface {
	Parse(token string) (*jwtx.LinkClaims, error)
}

type VerificationService interface {
	Verify(ctx context.Context, req dto.VerifyRequest) (dto.VerifyResponse, error)
	Status(ctx context.Context, id string) (dto.ChallengeStatusResponse, error)
}

type verificationService struct {
	gate     Confirmer
	attempts AttemptLookup
	links    LinkParser
}

// NewVerificationService crea el service. links puede ser nil (sin links firmados).
func NewVerificationService(g Confirmer, attempts AttemptLookup, links LinkParser) VerificationService {
	return &verificationService{gate: g, attempts: attempts, links: links}
}

func (s *verificationService) Verify(ctx context.Context, req dto.VerifyRequest) (dto.VerifyResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("verification"), logger.Op("Verify"))

	phone, err := types.ValidatePhone(req.PhoneNumber)
	if err != nil {
		return dto.VerifyResponse{}, err
	}
	method := types.VerificationMethod(req.VerificationMethod)
	proof, err := proofFor(method, req.VerificationData)
	if err != nil {
		return dto.VerifyResponse{}, err
	}

	id, err := s.resolve(ctx, req)
	if err != nil {
		return dto.VerifyResponse{}, err
	}
	cur, err := s.gate.Challenge(ctx, id)
	if err != nil {
		return dto.VerifyResponse{}, err
	}
	// no revelar challenges de otro número
	if cur.PhoneNumber != phone {
		log.Warn("verification phone does not match challenge", logger.ChallengeID(id), logger.Phone(phone))
		return dto.VerifyResponse{}, challenge.ErrChallengeNotFound
	}
	if cur.Method != method {
		return dto.VerifyResponse{}, fmt.Errorf("%w: challenge uses %s", ErrMethodMismatch, cur.Method)
	}

	d, err := s.gate.ConfirmVerification(ctx, id, proof)
	if err != nil {
		return dto.VerifyResponse{}, err
	}

	log.Info("verification processed", logger.ChallengeID(id), logger.Decision(string(d.Kind)))
	return dto.VerifyResponse{
		Verified:           d.Kind == gate.Authorized,
		ChallengeID:        d.ChallengeID,
		PaymentID:          d.PaymentAttemptID,
		VerificationMethod: string(d.Method),
		ExpiresAt:          d.ExpiresAt,
		Status:             statusFromReason(d.Reason),
		AttemptsRemaining:  d.AttemptsRemaining,
		Decision:           string(d.Kind),
		Reason:             d.Reason,
	}, nil
}

// resolve: token del link > challengeId > último challenge del paymentId.
func (s *verificationService) resolve(ctx context.Context, req dto.VerifyRequest) (string, error) {
	if tok := strings.TrimSpace(req.Token); tok != "" {
		if s.links == nil {
			return "", jwtx.ErrInvalidLink
		}
		claims, err := s.links.Parse(tok)
		if err != nil {
			return "", err
		}
		if req.ChallengeID != "" && req.ChallengeID != claims.ChallengeID {
			return "", fmt.Errorf("%w: challenge id does not match link", jwtx.ErrInvalidLink)
		}
		return claims.ChallengeID, nil
	}
	if req.ChallengeID != "" {
		return req.ChallengeID, nil
	}
	c, err := s.attempts.LatestForAttempt(ctx, req.PaymentID)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (s *verificationService) Status(ctx context.Context, id string) (dto.ChallengeStatusResponse, error) {
	c, err := s.gate.Challenge(ctx, id)
	if err != nil {
		return dto.ChallengeStatusResponse{}, err
	}
	return dto.ChallengeStatusResponse{
		ChallengeID:        c.ID,
		PaymentID:          c.PaymentAttemptID,
		PhoneNumber:        logger.MaskPhone(c.PhoneNumber),
		RiskLevel:          string(c.RiskTier),
		VerificationMethod: string(c.Method),
		Status:             string(c.Status),
		AttemptsRemaining:  c.AttemptsRemaining,
		CreatedAt:          c.CreatedAt,
		ExpiresAt:          c.ExpiresAt,
		VerifiedAt:         c.VerifiedAt,
	}, nil
}

func proofFor(m types.VerificationMethod, data dto.VerificationData) (challenge.Proof, error) {
	if m.UsesCode() {
		code := strings.TrimSpace(data.Code)
		if code == "" {
			return challenge.Proof{}, fmt.Errorf("%w: code required for %s", ErrMissingProof, m)
		}
		return challenge.Proof{Code: code}, nil
	}
	if len(data.Answers) == 0 {
		return challenge.Proof{}, fmt.Errorf("%w: answers required for %s", ErrMissingProof, m)
	}
	return challenge.Proof{Answers: data.Answers}, nil
}

func statusFromReason(reason string) string {
	switch reason {
	case gate.ReasonChallengeVerified:
		return string(types.ChallengeVerified)
	case gate.ReasonChallengeFailed:
		return string(types.ChallengeFailed)
	case gate.ReasonChallengeExpired:
		return string(types.ChallengeExpired)
	}
	return string(types.ChallengePending)
}
