package accreditation

import "errors"

var (
	// ErrCodigoInvalido means the scanned payload does not have the shape
	// of a ticket identifier; no lookup was attempted.
	ErrCodigoInvalido = errors.New("scanned code is not a valid ticket id")

	// ErrEntradaNotFound means the payload was well-formed but matches no
	// ticket.
	ErrEntradaNotFound = errors.New("entrada not found")

	ErrCantidadInvalida = errors.New("quantity must be at least 1")
	ErrRateLimited      = errors.New("rate limited")
)
