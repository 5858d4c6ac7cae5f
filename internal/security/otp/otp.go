// Package otp genera y compara códigos numéricos de un solo uso.
// Solo se persiste el hash SHA-256; el código en claro se entrega una vez.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Digits es la longitud de los códigos.
const Digits = 6

// Generate retorna un código de Digits dígitos con crypto/rand.
// Descarta bytes >= 250 para que cada dígito sea uniforme.
func Generate() (string, error) {
	out := make([]byte, 0, Digits)
	buf := make([]byte, Digits*2)
	for len(out) < Digits {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= 250 {
				continue
			}
			out = append(out, '0'+b%10)
			if len(out) == Digits {
				break
			}
		}
	}
	return string(out), nil
}

// Hash retorna el SHA-256 hex del código.
func Hash(code string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(h[:])
}

// Equal compara en tiempo constante el código provisto contra el hash guardado.
func Equal(code, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Hash(code)), []byte(storedHash)) == 1
}
