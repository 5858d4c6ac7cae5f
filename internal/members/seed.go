package members

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/domain/types"
)

// SeedMember es un miembro de fixtures (config YAML en dev/staging).
type SeedMember struct {
	MemberID       string       `yaml:"member_id"`
	PhoneNumber    string       `yaml:"phone_number"`
	Name           string       `yaml:"name"`
	Email          string       `yaml:"email"`
	AlternatePhone string       `yaml:"alternate_phone"`
	Questions      []SeedAnswer `yaml:"questions"`
}

type SeedAnswer struct {
	ID       string `yaml:"id"`
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// Seed carga los miembros en el directorio.
func Seed(ctx context.Context, d *Directory, seeds []SeedMember) error {
	for _, s := range seeds {
		phone, err := types.ValidatePhone(s.PhoneNumber)
		if err != nil {
			return fmt.Errorf("members: seed %q: %w", s.PhoneNumber, err)
		}
		if err := d.repo.UpsertContact(ctx, repository.MemberContact{
			MemberID: s.MemberID, PhoneNumber: phone, Name: s.Name,
			Email: s.Email, AlternatePhone: s.AlternatePhone,
		}); err != nil {
			return err
		}
		for _, q := range s.Questions {
			if err := d.Enroll(ctx, phone, q.ID, q.Question, q.Answer); err != nil {
				return fmt.Errorf("members: seed %s/%s: %w", s.MemberID, q.ID, err)
			}
		}
	}
	return nil
}
