package tickets

import "errors"

var (
	ErrEntradaNotFound  = errors.New("entrada not found")
	ErrNombreRequerido  = errors.New("buyer name is required")
	ErrAlumnoRequerido  = errors.New("student is required")
	ErrCantidadInvalida = errors.New("quantity must be at least 1")
	ErrEntradaConflict  = errors.New("conflict creating entrada")
)
