// Package gate es el único punto de entrada para autorizar un pago:
// consulta el oracle de SIM swap, clasifica el riesgo, emite challenges
// y deja cada decisión en el audit log antes de devolverla.
package gate

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/simguard/internal/challenge"
	"github.com/dropDatabas3/simguard/internal/domain/types"
)

var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrMissingPaymentAttempt = errors.New("missing payment attempt id")
	// ErrAttemptMismatch: el intento ya tiene un challenge para otro número.
	ErrAttemptMismatch = errors.New("payment attempt bound to a different phone number")
	// ErrAuditUnavailable: no se pudo registrar la decisión; no se entrega.
	ErrAuditUnavailable = errors.New("audit log unavailable")
)

// DefaultFailClosedAboveAmount es el umbral de fail-closed cuando el oracle no responde.
const DefaultFailClosedAboveAmount = 1000.0

// Oracle consulta el último SIM swap.
type Oracle interface {
	CheckSwap(ctx context.Context, phone string) (types.SwapRecord, error)
}

// Challenges es el subconjunto del challenge.Manager que usa el gate.
type Challenges interface {
	Now() time.Time
	Create(ctx context.Context, attemptID, phone string, tier types.RiskTier, method types.VerificationMethod) (*challenge.Issued, error)
	Validate(ctx context.Context, id string, proof challenge.Proof) (challenge.Result, error)
	Get(ctx context.Context, id string) (*types.Challenge, error)
	LatestForAttempt(ctx context.Context, attemptID string) (*types.Challenge, error)
}

// Auditor persiste entradas write-once.
type Auditor interface {
	Record(ctx context.Context, e types.AuditEntry) (types.AuditEntry, error)
}

// Notifier entrega el secreto de un challenge recién creado.
type Notifier interface {
	Notify(ctx context.Context, ch *types.Challenge, secret, link string) error
}

// LinkIssuer firma el link de verificación.
type LinkIssuer interface {
	Link(challengeID, paymentID string, expiresAt time.Time) (string, error)
}

type Config struct {
	// FailClosedAboveAmount: con el oracle caído, montos por encima se bloquean.
	FailClosedAboveAmount float64
	// DefaultMethod se usa cuando el caller no pide uno (si el tier lo permite).
	DefaultMethod types.VerificationMethod
}

// Options del caller para un Authorize.
type Options struct {
	BypassSimSwapCheck bool
	Method             types.VerificationMethod
	Operator           string
}

// Request describe el intento de pago a autorizar.
type Request struct {
	PaymentAttemptID string
	PhoneNumber      string
	Amount           float64
	WorkerID         string
	Options          Options
}

type Gate struct {
	cfg        Config
	oracle     Oracle
	challenges Challenges
	audit      Auditor
	notifier   Notifier
	links      LinkIssuer

	sf singleflight.Group
}

type Option func(*Gate)

func WithNotifier(n Notifier) Option { return func(g *Gate) { g.notifier = n } }
func WithLinks(l LinkIssuer) Option  { return func(g *Gate) { g.links = l } }

func New(cfg Config, oracle Oracle, challenges Challenges, audit Auditor, opts ...Option) *Gate {
	if cfg.FailClosedAboveAmount <= 0 {
		cfg.FailClosedAboveAmount = DefaultFailClosedAboveAmount
	}
	if !cfg.DefaultMethod.IsValid() {
		cfg.DefaultMethod = types.MethodEmail
	}
	g := &Gate{cfg: cfg, oracle: oracle, challenges: challenges, audit: audit}
	for _, o := range opts {
		o(g)
	}
	return g
}

// IsInputError indica errores de validación de entrada (400).
func IsInputError(err error) bool {
	return errors.Is(err, types.ErrInvalidPhoneNumber) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrMissingPaymentAttempt)
}
