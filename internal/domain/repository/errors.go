package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indica que los datos de entrada son inválidos
	// (bug del caller, no se reintenta).
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indica un conflicto (ej: client_id duplicado).
	ErrConflict = errors.New("conflict")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput verifica si el error es ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
