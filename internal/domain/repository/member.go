package repository

import "context"

// MemberContact son los canales out-of-band registrados para un miembro.
type MemberContact struct {
	MemberID       string
	PhoneNumber    string
	Name           string
	Email          string
	AlternatePhone string
}

// SecurityAnswer es una respuesta hasheada (argon2id) a una pregunta de seguridad.
type SecurityAnswer struct {
	QuestionID string
	Question   string
	AnswerHash string
}

// MemberRepository resuelve contactos y respuestas de seguridad por número.
// La gestión de miembros (CRUD) vive en otro sistema; acá solo se lee,
// salvo Upsert* que se usa para seeding.
type MemberRepository interface {
	// ContactByPhone retorna ErrNotFound si el número no pertenece a un miembro.
	ContactByPhone(ctx context.Context, phone string) (*MemberContact, error)

	// SecurityAnswers retorna las respuestas registradas (puede ser vacío).
	SecurityAnswers(ctx context.Context, phone string) ([]SecurityAnswer, error)

	UpsertContact(ctx context.Context, c MemberContact) error
	UpsertSecurityAnswer(ctx context.Context, phone string, a SecurityAnswer) error
}
