package notify

import (
	"strings"

	"github.com/dropDatabas3/simguard/internal/observability/logger"
)

func maskedPhone(p string) string { return logger.MaskPhone(p) }

// maskDestination enmascara emails (w***@dominio) y teléfonos.
func maskDestination(dest string) string {
	at := strings.IndexByte(dest, '@')
	if at < 0 {
		return logger.MaskPhone(dest)
	}
	if at <= 1 {
		return "*" + dest[at:]
	}
	return dest[:1] + strings.Repeat("*", at-1) + dest[at:]
}
