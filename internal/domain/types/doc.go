// Package types define tipos de dominio compartidos entre paquetes
// (oracle, clasificador, challenges, gate y auditoría).
package types
