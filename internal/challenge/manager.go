// Package challenge administra el ciclo de vida de los challenges de verificación
// out-of-band: creación con secreto de un solo uso, validación con intentos
// acotados y expiración fija.
package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/metrics"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
	"github.com/dropDatabas3/simguard/internal/security/otp"
)

const (
	DefaultTTL         = 10 * time.Minute
	DefaultMaxAttempts = 3
	DefaultRetention   = 24 * time.Hour
)

// Config del manager.
type Config struct {
	TTL         time.Duration
	MaxAttempts int
	// Retention: cuánto se conservan los challenges terminales antes del purge.
	Retention time.Duration
}

// Proof es lo que el miembro presenta para resolver un challenge.
type Proof struct {
	Code    string
	Answers map[string]string // questionID -> respuesta
}

// AnswerVerifier valida respuestas a preguntas de seguridad contra el directorio de miembros.
type AnswerVerifier interface {
	VerifyAnswers(ctx context.Context, phone string, answers map[string]string) (bool, error)
}

// Issued es el resultado de Create. Secret es el código en claro, solo para entrega.
type Issued struct {
	Challenge *types.Challenge
	Secret    string
}

// Result de una validación. Un proof incorrecto no es error.
type Result struct {
	Verified          bool
	Status            types.ChallengeStatus
	AttemptsRemaining int
	Challenge         *types.Challenge
}

// Manager aplica las reglas de challenges sobre un ChallengeRepository.
type Manager struct {
	repo    repository.ChallengeRepository
	answers AnswerVerifier
	cfg     Config
	now     func() time.Time
	newID   func() string
}

type Option func(*Manager)

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator reemplaza la generación de IDs (default uuid v4).
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// NewManager crea el manager. answers puede ser nil si security_questions no está disponible.
func NewManager(repo repository.ChallengeRepository, answers AnswerVerifier, cfg Config, opts ...Option) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	m := &Manager{
		repo:    repo,
		answers: answers,
		cfg:     cfg,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Now expone el reloj del manager para que el gate use la misma fuente de tiempo.
func (m *Manager) Now() time.Time { return m.now().UTC() }

// Create emite un challenge para el intento de pago.
func (m *Manager) Create(ctx context.Context, attemptID, phone string, tier types.RiskTier, method types.VerificationMethod) (*Issued, error) {
	if !MethodAllowed(tier, method) {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedMethodForTier, method, tier)
	}
	if method == types.MethodSecurityQuestions && m.answers == nil {
		return nil, fmt.Errorf("%w: %s", ErrMethodUnavailable, method)
	}
	p, err := types.ValidatePhone(phone)
	if err != nil {
		return nil, err
	}

	now := m.Now()
	c := &types.Challenge{
		ID:                m.newID(),
		PaymentAttemptID:  attemptID,
		PhoneNumber:       p,
		RiskTier:          tier,
		Method:            method,
		CreatedAt:         now,
		ExpiresAt:         now.Add(m.cfg.TTL),
		AttemptsRemaining: m.cfg.MaxAttempts,
		Status:            types.ChallengePending,
		UpdatedAt:         now,
	}

	var secret string
	if method.UsesCode() {
		secret, err = otp.Generate()
		if err != nil {
			return nil, fmt.Errorf("challenge: generate code: %w", err)
		}
		c.SecretHash = otp.Hash(secret)
	}

	if err := m.repo.Insert(ctx, c); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			existing, lerr := m.repo.LatestForAttempt(ctx, attemptID)
			if lerr != nil {
				return nil, fmt.Errorf("%w: %w", ErrChallengeAlreadyActive, lerr)
			}
			return nil, &ActiveError{Existing: existing}
		}
		return nil, fmt.Errorf("challenge: insert: %w", err)
	}

	metrics.ChallengesCreated.WithLabelValues(string(method), string(tier)).Inc()
	logger.From(ctx).Info("challenge created",
		logger.ChallengeID(c.ID), logger.PaymentAttempt(attemptID),
		logger.Tier(string(tier)), logger.String("method", string(method)))
	return &Issued{Challenge: c.Clone(), Secret: secret}, nil
}

// Validate aplica un proof. Ver reglas:
//   - verified: idempotente, verified=true sin importar el proof
//   - failed: ErrChallengeAlreadyTerminal
//   - expired, o pending con now > expiresAt: se marca expired y ErrChallengeExpired sin descontar intentos
//   - proof correcto: verified
//   - proof incorrecto: descuenta un intento; en cero pasa a failed
func (m *Manager) Validate(ctx context.Context, id string, proof Proof) (Result, error) {
	cur, err := m.get(ctx, id)
	if err != nil {
		return Result{}, err
	}

	// el proof se evalúa fuera de la transacción: el secreto es inmutable
	var ok bool
	if cur.Status == types.ChallengePending && !cur.ExpiredAt(m.Now()) {
		ok, err = m.checkProof(ctx, cur, proof)
		if err != nil {
			return Result{}, err
		}
	}

	var outcome error
	updated, err := m.repo.Update(ctx, id, func(c *types.Challenge) error {
		outcome = nil
		now := m.Now()
		switch {
		case c.Status == types.ChallengeVerified:
		case c.Status == types.ChallengeFailed:
			outcome = ErrChallengeAlreadyTerminal
		case c.Status == types.ChallengeExpired:
			outcome = ErrChallengeExpired
		case c.ExpiredAt(now):
			c.Status = types.ChallengeExpired
			c.UpdatedAt = now
			outcome = ErrChallengeExpired
		case ok:
			c.Status = types.ChallengeVerified
			c.VerifiedAt = &now
			c.UpdatedAt = now
		default:
			c.AttemptsRemaining--
			if c.AttemptsRemaining <= 0 {
				c.AttemptsRemaining = 0
				c.Status = types.ChallengeFailed
			}
			c.UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return Result{}, m.notFound(err)
	}

	log := logger.From(ctx).With(logger.ChallengeID(id), logger.String("status", string(updated.Status)))
	if outcome != nil {
		metrics.ChallengeValidations.WithLabelValues(validationLabel(outcome)).Inc()
		log.Info("challenge validation rejected", logger.Err(outcome))
		return Result{Status: updated.Status, AttemptsRemaining: updated.AttemptsRemaining, Challenge: updated}, outcome
	}

	res := Result{
		Verified:          updated.Status == types.ChallengeVerified,
		Status:            updated.Status,
		AttemptsRemaining: updated.AttemptsRemaining,
		Challenge:         updated,
	}
	switch {
	case res.Verified:
		metrics.ChallengeValidations.WithLabelValues("verified").Inc()
	case res.Status == types.ChallengeFailed:
		metrics.ChallengeValidations.WithLabelValues("failed").Inc()
		log.Warn("challenge failed: attempts exhausted")
	default:
		metrics.ChallengeValidations.WithLabelValues("mismatch").Inc()
	}
	return res, nil
}

// Get retorna el challenge aplicando expiración lazy.
func (m *Manager) Get(ctx context.Context, id string) (*types.Challenge, error) {
	c, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.expireIfStale(ctx, c)
}

// LatestForAttempt retorna el challenge más reciente del intento, con expiración lazy.
func (m *Manager) LatestForAttempt(ctx context.Context, attemptID string) (*types.Challenge, error) {
	c, err := m.repo.LatestForAttempt(ctx, attemptID)
	if err != nil {
		return nil, m.notFound(err)
	}
	return m.expireIfStale(ctx, c)
}

// ActiveForAttempt retorna el challenge pending y vigente del intento;
// ErrChallengeNotFound si el último ya es terminal o venció.
func (m *Manager) ActiveForAttempt(ctx context.Context, attemptID string) (*types.Challenge, error) {
	c, err := m.LatestForAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if c.Status != types.ChallengePending {
		return nil, ErrChallengeNotFound
	}
	return c, nil
}

// Sweep marca expirados los pending vencidos y purga terminales viejos.
func (m *Manager) Sweep(ctx context.Context) (expired, purged int, err error) {
	expired, purged, err = m.repo.Sweep(ctx, m.Now(), m.cfg.Retention)
	if err != nil {
		return 0, 0, err
	}
	metrics.ChallengesSwept.WithLabelValues("expired").Add(float64(expired))
	metrics.ChallengesSwept.WithLabelValues("purged").Add(float64(purged))
	return expired, purged, nil
}

func (m *Manager) get(ctx context.Context, id string) (*types.Challenge, error) {
	c, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, m.notFound(err)
	}
	return c, nil
}

func (m *Manager) expireIfStale(ctx context.Context, c *types.Challenge) (*types.Challenge, error) {
	if c.Status != types.ChallengePending || !c.ExpiredAt(m.Now()) {
		return c, nil
	}
	updated, err := m.repo.Update(ctx, c.ID, func(cur *types.Challenge) error {
		now := m.Now()
		if cur.Status == types.ChallengePending && cur.ExpiredAt(now) {
			cur.Status = types.ChallengeExpired
			cur.UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, m.notFound(err)
	}
	return updated, nil
}

func (m *Manager) checkProof(ctx context.Context, c *types.Challenge, p Proof) (bool, error) {
	switch c.Method {
	case types.MethodEmail, types.MethodAlternatePhone:
		return otp.Equal(p.Code, c.SecretHash), nil
	case types.MethodSecurityQuestions:
		if len(p.Answers) == 0 {
			return false, nil
		}
		if m.answers == nil {
			return false, ErrMethodUnavailable
		}
		return m.answers.VerifyAnswers(ctx, c.PhoneNumber, p.Answers)
	}
	return false, fmt.Errorf("challenge: unknown method %q", c.Method)
}

func (m *Manager) notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrChallengeNotFound
	}
	return err
}

func validationLabel(err error) string {
	switch {
	case errors.Is(err, ErrChallengeExpired):
		return "expired"
	case errors.Is(err, ErrChallengeAlreadyTerminal):
		return "terminal"
	}
	return "error"
}
