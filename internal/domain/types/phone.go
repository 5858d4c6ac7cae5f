package types

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPhoneNumber indica que el número no está en formato E.164.
var ErrInvalidPhoneNumber = errors.New("invalid phone number")

// E.164: '+' seguido de 10 a 15 dígitos.
var e164 = regexp.MustCompile(`^\+[0-9]{10,15}$`)

// NormalizePhone quita espacios, guiones y paréntesis antes de validar.
func NormalizePhone(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}

// ValidatePhone normaliza y valida el número. Retorna el número canónico.
func ValidatePhone(raw string) (string, error) {
	p := NormalizePhone(raw)
	if !e164.MatchString(p) {
		return "", ErrInvalidPhoneNumber
	}
	return p, nil
}

// IsValidPhone es un atajo booleano de ValidatePhone.
func IsValidPhone(raw string) bool {
	_, err := ValidatePhone(raw)
	return err == nil
}
