// Package repository define las interfaces de repositorio de dominio.
//
// Estas interfaces representan contratos de negocio, independientes del
// almacenamiento subyacente. Las implementaciones viven en internal/store/
// (memory, redis, pg).
//
//	┌──────────────────────────────────────────────┐
//	│   gate / challenge.Manager / audit.Log        │
//	└──────────────────────────────────────────────┘
//	                      │
//	                      ▼
//	┌──────────────────────────────────────────────┐
//	│   domain/repository (interfaces)              │
//	│   Challenge, Audit, Member                    │
//	└──────────────────────────────────────────────┘
//	                      │
//	       ┌──────────────┼──────────────┐
//	       ▼              ▼              ▼
//	  store/memory    store/redis     store/pg
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Errores de dominio están en errors.go
package repository
