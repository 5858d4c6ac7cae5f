package memory

import (
	"context"
	"sync"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
)

// MemberStore guarda contactos y respuestas de seguridad indexados por teléfono.
type MemberStore struct {
	mu       sync.RWMutex
	contacts map[string]repository.MemberContact
	answers  map[string]map[string]repository.SecurityAnswer
}

var _ repository.MemberRepository = (*MemberStore)(nil)

func NewMemberStore() *MemberStore {
	return &MemberStore{
		contacts: map[string]repository.MemberContact{},
		answers:  map[string]map[string]repository.SecurityAnswer{},
	}
}

func (s *MemberStore) ContactByPhone(_ context.Context, phone string) (*repository.MemberContact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[phone]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *MemberStore) SecurityAnswers(_ context.Context, phone string) ([]repository.SecurityAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]repository.SecurityAnswer, 0, len(s.answers[phone]))
	for _, a := range s.answers[phone] {
		out = append(out, a)
	}
	return out, nil
}

func (s *MemberStore) UpsertContact(_ context.Context, c repository.MemberContact) error {
	s.mu.Lock()
	s.contacts[c.PhoneNumber] = c
	s.mu.Unlock()
	return nil
}

func (s *MemberStore) UpsertSecurityAnswer(_ context.Context, phone string, a repository.SecurityAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.answers[phone] == nil {
		s.answers[phone] = map[string]repository.SecurityAnswer{}
	}
	s.answers[phone][a.QuestionID] = a
	return nil
}
