package domain

import "regexp"

// Estado is the human-readable redemption status of a ticket. The listing
// screens sort by this label lexicographically, so the literal strings are
// load-bearing.
type Estado string

const (
	EstadoYaUsada           Estado = "Ya usada"
	EstadoPendiente         Estado = "Pendiente"
	EstadoParcialmenteUsada Estado = "Parcialmente usada"
	EstadoUsadaDeMas        Estado = "Usada de más"
)

// Color is the display severity tag paired with each status.
type Color string

const (
	ColorRed    Color = "red"    // fully redeemed: alerting
	ColorGreen  Color = "green"  // pending: positive
	ColorYellow Color = "yellow" // partially redeemed: cautionary
	ColorPurple Color = "purple" // over-redeemed: anomalous
)

// Restantes returns the remaining entries on a ticket. The result can be
// negative when a ticket has been over-redeemed; callers display the raw
// value and only clamp when seeding a default input (CantidadAAcreditar).
func Restantes(compradas, usadas int) int {
	return compradas - usadas
}

// DarEstado classifies a ticket's redemption state. The checks are ordered:
// equality first, then zero, then less-than, with greater-than as the
// implicit remainder. A zero-purchased zero-used ticket therefore reports
// "Ya usada", not "Pendiente" (first match wins).
func DarEstado(compradas, usadas int) Estado {
	if compradas == usadas {
		return EstadoYaUsada
	}
	if usadas == 0 {
		return EstadoPendiente
	}
	if usadas < compradas {
		return EstadoParcialmenteUsada
	}
	return EstadoUsadaDeMas
}

// DarColorEstado maps the same four branches, in the same order, to the
// display palette. It must agree with DarEstado branch-for-branch.
func DarColorEstado(compradas, usadas int) Color {
	if compradas == usadas {
		return ColorRed
	}
	if usadas == 0 {
		return ColorGreen
	}
	if usadas < compradas {
		return ColorYellow
	}
	return ColorPurple
}

// CantidadAAcreditar is the default quantity prefilled into the
// accreditation form: the remaining count, clamped at zero.
func CantidadAAcreditar(compradas, usadas int) int {
	if r := Restantes(compradas, usadas); r > 0 {
		return r
	}
	return 0
}

var guidRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// EsGuidValido reports whether a scanned QR payload has the shape of a
// ticket identifier. Malformed payloads are rejected before any lookup.
func EsGuidValido(id string) bool {
	if len(id) != 36 {
		return false
	}
	return guidRe.MatchString(toLowerASCII(id))
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
