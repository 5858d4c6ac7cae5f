// Package members resuelve los canales out-of-band de un miembro
// (email, teléfono alternativo, preguntas de seguridad).
package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/security/answers"
)

// ErrNoContact: el miembro no tiene registrado el canal pedido.
var ErrNoContact = errors.New("member has no contact for method")

// Question es lo que se muestra al miembro (nunca el hash).
type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Directory envuelve el MemberRepository con hashing de respuestas.
type Directory struct {
	repo   repository.MemberRepository
	params answers.Params
}

func NewDirectory(repo repository.MemberRepository, params answers.Params) *Directory {
	if params.KeyLen == 0 {
		params = answers.Default
	}
	return &Directory{repo: repo, params: params}
}

// Contact retorna los datos de contacto del número.
func (d *Directory) Contact(ctx context.Context, phone string) (*repository.MemberContact, error) {
	return d.repo.ContactByPhone(ctx, phone)
}

// Destination retorna a dónde se entrega el código para el método.
func (d *Directory) Destination(ctx context.Context, phone string, m types.VerificationMethod) (string, error) {
	c, err := d.repo.ContactByPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	var dest string
	switch m {
	case types.MethodEmail:
		dest = c.Email
	case types.MethodAlternatePhone:
		dest = c.AlternatePhone
	}
	if dest == "" {
		return "", fmt.Errorf("%w: %s", ErrNoContact, m)
	}
	return dest, nil
}

// Questions lista las preguntas registradas.
func (d *Directory) Questions(ctx context.Context, phone string) ([]Question, error) {
	stored, err := d.repo.SecurityAnswers(ctx, phone)
	if err != nil {
		return nil, err
	}
	out := make([]Question, 0, len(stored))
	for _, a := range stored {
		out = append(out, Question{ID: a.QuestionID, Text: a.Question})
	}
	return out, nil
}

// VerifyAnswers exige respuesta correcta a todas las preguntas registradas.
// Sin preguntas registradas nunca verifica.
func (d *Directory) VerifyAnswers(ctx context.Context, phone string, given map[string]string) (bool, error) {
	stored, err := d.repo.SecurityAnswers(ctx, phone)
	if err != nil {
		return false, err
	}
	if len(stored) == 0 {
		return false, nil
	}
	ok := true
	// se evalúan todas para no filtrar cuál falló por timing
	for _, a := range stored {
		if !answers.Verify(given[a.QuestionID], a.AnswerHash) {
			ok = false
		}
	}
	return ok, nil
}

// Enroll registra (o reemplaza) una respuesta, hasheada con argon2id.
func (d *Directory) Enroll(ctx context.Context, phone, questionID, question, answer string) error {
	h, err := answers.Hash(d.params, answer)
	if err != nil {
		return err
	}
	return d.repo.UpsertSecurityAnswer(ctx, phone, repository.SecurityAnswer{
		QuestionID: questionID, Question: question, AnswerHash: h,
	})
}
