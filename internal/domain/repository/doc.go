// Package repository define las interfaces de repositorio de dominio.
//
// Estas interfaces representan contratos de negocio, independientes del
// almacenamiento subyacente (PostgreSQL, memoria, etc.). Las implementaciones
// concretas viven en internal/store/adapters/.
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Errores de dominio están en errors.go
//   - Los repositorios de lectura son side-effect free; el core nunca
//     reintenta fallos del colaborador, los propaga (fail closed)
package repository
