package tickets

import (
	"testing"

	"github.com/google/uuid"

	"github.com/mpensambles/entradasqr/internal/domain"
)

func vista(comprador, alumno, grupo string, idAlumno int64, compradas, usadas int) domain.VistaEntrada {
	return domain.VistaEntrada{
		ID:              uuid.New(),
		NombreComprador: comprador,
		Compradas:       compradas,
		Usadas:          usadas,
		IDAlumno:        idAlumno,
		NombreAlumno:    alumno,
		IDGrupo:         grupo,
	}
}

func names(entradas []domain.VistaEntrada) []string {
	out := make([]string, 0, len(entradas))
	for _, e := range entradas {
		out = append(out, e.NombreComprador)
	}
	return out
}

func equalNames(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFiltrarTexto(t *testing.T) {
	t.Parallel()

	set := []domain.VistaEntrada{
		vista("María García", "Lucía Pérez", "g1", 1, 2, 0),
		vista("Juan López", "Pedro García", "g1", 2, 2, 0),
		vista("Ana Torres", "Sofía Ruiz", "g2", 3, 2, 0),
	}

	tests := []struct {
		name string
		f    Filtros
		want []string
	}{
		{"empty text keeps all", Filtros{}, []string{"María García", "Juan López", "Ana Torres"}},
		{
			// matches buyer name OR student name
			"text matches either name",
			Filtros{Texto: "garcía"},
			[]string{"María García", "Juan López"},
		},
		{"text is case insensitive", Filtros{Texto: "TORRES"}, []string{"Ana Torres"}},
		{"no match yields empty", Filtros{Texto: "zzz"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := names(Filtrar(set, tt.f))
			if !equalNames(got, tt.want) {
				t.Errorf("Filtrar(%+v) = %v, want %v", tt.f, got, tt.want)
			}
		})
	}
}

func TestFiltrarFacetas(t *testing.T) {
	t.Parallel()

	set := []domain.VistaEntrada{
		vista("María García", "Lucía Pérez", "g1", 1, 2, 0),
		vista("Juan López", "Pedro García", "g1", 2, 2, 0),
		vista("Ana Torres", "Sofía Ruiz", "g2", 3, 2, 0),
	}

	tests := []struct {
		name string
		f    Filtros
		want []string
	}{
		{
			// facet filters are inert until enabled
			"disabled facets are ignored",
			Filtros{IDGrupo: "g2", IDAlumno: 3},
			[]string{"María García", "Juan López", "Ana Torres"},
		},
		{
			"group facet",
			Filtros{Habilitados: true, IDGrupo: "g1"},
			[]string{"María García", "Juan López"},
		},
		{
			"student facet",
			Filtros{Habilitados: true, IDAlumno: 2},
			[]string{"Juan López"},
		},
		{
			// facets AND with each other
			"conflicting facets yield empty",
			Filtros{Habilitados: true, IDGrupo: "g2", IDAlumno: 1},
			nil,
		},
		{
			// text ANDs with the facets
			"text with facet",
			Filtros{Texto: "garcía", Habilitados: true, IDGrupo: "g1"},
			[]string{"María García", "Juan López"},
		},
		{
			"text with facet narrows to one",
			Filtros{Texto: "maría", Habilitados: true, IDGrupo: "g1"},
			[]string{"María García"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := names(Filtrar(set, tt.f))
			if !equalNames(got, tt.want) {
				t.Errorf("Filtrar(%+v) = %v, want %v", tt.f, got, tt.want)
			}
		})
	}
}

func TestOrdenarPorEtiquetaDeEstado(t *testing.T) {
	t.Parallel()

	// statuses: Carla=Pendiente, Berta=Ya usada, Ana=Usada de más,
	// Diego=Parcialmente usada. Lexicographic label order is
	// Parcialmente usada < Pendiente < Usada de más < Ya usada.
	set := []domain.VistaEntrada{
		vista("Carla", "x", "g1", 1, 3, 0),
		vista("Berta", "x", "g1", 2, 3, 3),
		vista("Ana", "x", "g1", 3, 3, 5),
		vista("Diego", "x", "g1", 4, 3, 1),
	}

	Ordenar(set)

	want := []string{"Diego", "Carla", "Ana", "Berta"}
	if got := names(set); !equalNames(got, want) {
		t.Errorf("Ordenar() order = %v, want %v", got, want)
	}
}

func TestOrdenarSecundarioPorComprador(t *testing.T) {
	t.Parallel()

	set := []domain.VistaEntrada{
		vista("Zoe", "x", "g1", 1, 3, 0),
		vista("Álvaro", "x", "g1", 2, 3, 0),
		vista("Beatriz", "x", "g1", 3, 3, 0),
	}

	Ordenar(set)

	// Spanish collation places Álvaro before Beatriz despite the accent.
	want := []string{"Álvaro", "Beatriz", "Zoe"}
	if got := names(set); !equalNames(got, want) {
		t.Errorf("Ordenar() order = %v, want %v", got, want)
	}
}

func TestOrdenarEsEstable(t *testing.T) {
	t.Parallel()

	a := vista("Misma", "first", "g1", 1, 3, 0)
	b := vista("Misma", "second", "g1", 2, 3, 0)
	set := []domain.VistaEntrada{a, b}

	Ordenar(set)

	if set[0].NombreAlumno != "first" || set[1].NombreAlumno != "second" {
		t.Errorf("equal (label, buyer) pairs reordered: got %q then %q",
			set[0].NombreAlumno, set[1].NombreAlumno)
	}
}

// Issuance through successive redemptions: the label walks Pendiente →
// Parcialmente usada → Ya usada → Usada de más, and the prefilled quantity
// tracks the remaining count clamped at zero.
func TestCicloDeAcreditacion(t *testing.T) {
	t.Parallel()

	compradas := 4
	usadas := 0

	steps := []struct {
		redeem      int
		wantEstado  domain.Estado
		wantPrefill int
	}{
		{0, domain.EstadoPendiente, 4},
		{2, domain.EstadoParcialmenteUsada, 2},
		{2, domain.EstadoYaUsada, 0},
		{1, domain.EstadoUsadaDeMas, 0},
	}

	for i, s := range steps {
		usadas += s.redeem
		if got := domain.DarEstado(compradas, usadas); got != s.wantEstado {
			t.Errorf("step %d: DarEstado(%d, %d) = %q, want %q", i, compradas, usadas, got, s.wantEstado)
		}
		if got := domain.CantidadAAcreditar(compradas, usadas); got != s.wantPrefill {
			t.Errorf("step %d: CantidadAAcreditar(%d, %d) = %d, want %d", i, compradas, usadas, got, s.wantPrefill)
		}
	}
}
