package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrInvalidQuantity = errors.New("la cantidad debe ser mayor que cero")
	ErrInvalidPrice    = errors.New("el precio unitario no puede ser negativo")
	ErrDuplicate       = errors.New("recurso duplicado")
	ErrConflict        = errors.New("conflicto con el estado actual")
	// ErrStorage envuelve cualquier falla del almacenamiento subyacente; el caller decide si reintenta.
	ErrStorage = errors.New("falla de almacenamiento")
	// ErrLockNotObtained el bloqueo por material no se obtuvo dentro del tiempo de espera.
	ErrLockNotObtained = errors.New("no se pudo obtener el bloqueo")
)

// IsCallerError indica si err es un error del llamador (no reintentar).
func IsCallerError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrConflict)
}
