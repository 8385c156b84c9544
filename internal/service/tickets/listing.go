package tickets

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mpensambles/entradasqr/internal/domain"
)

// Filtros are the preaccreditation list filters. Texto always applies;
// the facet filters apply only while Habilitados is on.
type Filtros struct {
	Texto       string
	Habilitados bool
	IDGrupo     string
	IDAlumno    int64
}

// Filtrar narrows the working set. The free-text predicate is a
// case-insensitive substring match against buyer name OR student name; the
// facet predicates AND with each other and with the text predicate.
func Filtrar(entradas []domain.VistaEntrada, f Filtros) []domain.VistaEntrada {
	out := make([]domain.VistaEntrada, 0, len(entradas))

	texto := strings.ToLower(strings.TrimSpace(f.Texto))

	for _, e := range entradas {
		if texto != "" &&
			!strings.Contains(strings.ToLower(e.NombreComprador), texto) &&
			!strings.Contains(strings.ToLower(e.NombreAlumno), texto) {
			continue
		}
		if f.Habilitados && f.IDGrupo != "" && e.IDGrupo != f.IDGrupo {
			continue
		}
		if f.Habilitados && f.IDAlumno != 0 && e.IDAlumno != f.IDAlumno {
			continue
		}
		out = append(out, e)
	}

	return out
}

// Ordenar sorts the list in place: primary key is the status label
// compared lexicographically (not by severity rank — label text changes
// would silently change the order, which is the shipped behavior),
// secondary key is the buyer name. Both comparisons use Spanish collation.
// The sort is stable, so equal (label, buyer) pairs keep their input
// order.
func Ordenar(entradas []domain.VistaEntrada) {
	c := collate.New(language.Spanish)

	sort.SliceStable(entradas, func(i, j int) bool {
		a, b := entradas[i], entradas[j]

		estadoA := string(domain.DarEstado(a.Compradas, a.Usadas))
		estadoB := string(domain.DarEstado(b.Compradas, b.Usadas))

		if cmp := c.CompareString(estadoA, estadoB); cmp != 0 {
			return cmp < 0
		}

		return c.CompareString(a.NombreComprador, b.NombreComprador) < 0
	})
}
