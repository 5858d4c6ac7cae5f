package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/security/secretbox"
)

// MemberStore lee contactos y respuestas de seguridad de member_contact / member_security_answer.
// Con un Box configurado, email y alternate_phone se guardan cifrados.
type MemberStore struct {
	pool *pgxpool.Pool
	box  *secretbox.Box
}

var _ repository.MemberRepository = (*MemberStore)(nil)

type MemberOption func(*MemberStore)

// WithContactCipher cifra los destinos de entrega en reposo.
func WithContactCipher(b *secretbox.Box) MemberOption {
	return func(s *MemberStore) { s.box = b }
}

func NewMemberStore(pool *pgxpool.Pool, opts ...MemberOption) *MemberStore {
	s := &MemberStore{pool: pool}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *MemberStore) seal(v string) (string, error) {
	if s.box == nil {
		return v, nil
	}
	return s.box.Seal(v)
}

func (s *MemberStore) open(v string) (string, error) {
	if s.box == nil {
		return v, nil
	}
	return s.box.Open(v)
}

func (s *MemberStore) ContactByPhone(ctx context.Context, phone string) (*repository.MemberContact, error) {
	var c repository.MemberContact
	err := s.pool.QueryRow(ctx, `
		SELECT member_id, phone_number, name, email, alternate_phone
		FROM member_contact WHERE phone_number = $1
	`, phone).Scan(&c.MemberID, &c.PhoneNumber, &c.Name, &c.Email, &c.AlternatePhone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if c.Email, err = s.open(c.Email); err != nil {
		return nil, fmt.Errorf("member_contact email: %w", err)
	}
	if c.AlternatePhone, err = s.open(c.AlternatePhone); err != nil {
		return nil, fmt.Errorf("member_contact alternate_phone: %w", err)
	}
	return &c, nil
}

func (s *MemberStore) SecurityAnswers(ctx context.Context, phone string) ([]repository.SecurityAnswer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT question_id, question, answer_hash
		FROM member_security_answer WHERE phone_number = $1 ORDER BY question_id
	`, phone)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.SecurityAnswer, error) {
		var a repository.SecurityAnswer
		err := row.Scan(&a.QuestionID, &a.Question, &a.AnswerHash)
		return a, err
	})
}

func (s *MemberStore) UpsertContact(ctx context.Context, c repository.MemberContact) error {
	email, err := s.seal(c.Email)
	if err != nil {
		return err
	}
	alt, err := s.seal(c.AlternatePhone)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO member_contact (phone_number, member_id, name, email, alternate_phone, updated_at)
		VALUES ($1,$2,$3,$4,$5, now())
		ON CONFLICT (phone_number)
		DO UPDATE SET member_id = EXCLUDED.member_id,
		              name = EXCLUDED.name,
		              email = EXCLUDED.email,
		              alternate_phone = EXCLUDED.alternate_phone,
		              updated_at = now()
	`, c.PhoneNumber, c.MemberID, c.Name, email, alt)
	return err
}

func (s *MemberStore) UpsertSecurityAnswer(ctx context.Context, phone string, a repository.SecurityAnswer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO member_security_answer (phone_number, question_id, question, answer_hash)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (phone_number, question_id)
		DO UPDATE SET question = EXCLUDED.question, answer_hash = EXCLUDED.answer_hash
	`, phone, a.QuestionID, a.Question, a.AnswerHash)
	return err
}
