package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/domain/types"
)

// ChallengeStore persiste challenges en verification_challenge.
// El índice único parcial (payment_attempt_id WHERE status='pending') es el CAS de creación.
type ChallengeStore struct{ pool *pgxpool.Pool }

var _ repository.ChallengeRepository = (*ChallengeStore)(nil)

func NewChallengeStore(pool *pgxpool.Pool) *ChallengeStore {
	return &ChallengeStore{pool: pool}
}

const challengeColumns = `id, payment_attempt_id, phone_number, risk_tier, method, secret_hash,
	status, attempts_remaining, created_at, expires_at, verified_at, updated_at`

func scanChallenge(row pgx.Row) (*types.Challenge, error) {
	var c types.Challenge
	var tier, method, status string
	err := row.Scan(&c.ID, &c.PaymentAttemptID, &c.PhoneNumber, &tier, &method, &c.SecretHash,
		&status, &c.AttemptsRemaining, &c.CreatedAt, &c.ExpiresAt, &c.VerifiedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	c.RiskTier = types.RiskTier(tier)
	c.Method = types.VerificationMethod(method)
	c.Status = types.ChallengeStatus(status)
	c.CreatedAt = c.CreatedAt.UTC()
	c.ExpiresAt = c.ExpiresAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

func (s *ChallengeStore) Insert(ctx context.Context, c *types.Challenge) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// un pending vencido no bloquea: se marca expired en la misma tx
		if _, err := tx.Exec(ctx, `
			UPDATE verification_challenge SET status = 'expired', updated_at = $2
			WHERE payment_attempt_id = $1 AND status = 'pending' AND expires_at < $2
		`, c.PaymentAttemptID, c.CreatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO verification_challenge (`+challengeColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		`, c.ID, c.PaymentAttemptID, c.PhoneNumber, string(c.RiskTier), string(c.Method), c.SecretHash,
			string(c.Status), c.AttemptsRemaining, c.CreatedAt, c.ExpiresAt, c.VerifiedAt, c.UpdatedAt)
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return err
	})
}

func (s *ChallengeStore) Get(ctx context.Context, id string) (*types.Challenge, error) {
	return scanChallenge(s.pool.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM verification_challenge WHERE id = $1`, id))
}

func (s *ChallengeStore) LatestForAttempt(ctx context.Context, attemptID string) (*types.Challenge, error) {
	return scanChallenge(s.pool.QueryRow(ctx, `
		SELECT `+challengeColumns+` FROM verification_challenge
		WHERE payment_attempt_id = $1
		ORDER BY created_at DESC LIMIT 1`, attemptID))
}

func (s *ChallengeStore) Update(ctx context.Context, id string, fn func(*types.Challenge) error) (*types.Challenge, error) {
	var out *types.Challenge
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		c, err := scanChallenge(tx.QueryRow(ctx,
			`SELECT `+challengeColumns+` FROM verification_challenge WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE verification_challenge
			SET status = $2, attempts_remaining = $3, verified_at = $4, updated_at = $5
			WHERE id = $1
		`, c.ID, string(c.Status), c.AttemptsRemaining, c.VerifiedAt, c.UpdatedAt); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ChallengeStore) Sweep(ctx context.Context, now time.Time, retention time.Duration) (expired, purged int, err error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE verification_challenge SET status = 'expired', updated_at = $1
		WHERE status = 'pending' AND expires_at < $1`, now)
	if err != nil {
		return 0, 0, err
	}
	expired = int(tag.RowsAffected())

	tag, err = s.pool.Exec(ctx, `
		DELETE FROM verification_challenge
		WHERE status <> 'pending' AND updated_at < $1`, now.Add(-retention))
	if err != nil {
		return expired, 0, err
	}
	return expired, int(tag.RowsAffected()), nil
}
