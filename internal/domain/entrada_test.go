package domain

import "testing"

func TestRestantes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		compradas int
		usadas    int
		want      int
	}{
		{"untouched", 5, 0, 5},
		{"partial", 5, 2, 3},
		{"exhausted", 5, 5, 0},
		{"overshoot", 5, 7, -2},
		{"zero ticket", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Restantes(tt.compradas, tt.usadas); got != tt.want {
				t.Errorf("Restantes(%d, %d) = %d, want %d", tt.compradas, tt.usadas, got, tt.want)
			}
		})
	}
}

func TestDarEstado(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		compradas int
		usadas    int
		want      Estado
	}{
		{"pending", 4, 0, EstadoPendiente},
		{"partial", 4, 1, EstadoParcialmenteUsada},
		{"partial at edge", 4, 3, EstadoParcialmenteUsada},
		{"exhausted", 4, 4, EstadoYaUsada},
		{"overshoot", 4, 5, EstadoUsadaDeMas},
		// equality wins over the zero check, so a zero/zero ticket is
		// reported as already used, not pending
		{"zero purchased zero used", 0, 0, EstadoYaUsada},
		{"single entry used", 1, 1, EstadoYaUsada},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := DarEstado(tt.compradas, tt.usadas); got != tt.want {
				t.Errorf("DarEstado(%d, %d) = %q, want %q", tt.compradas, tt.usadas, got, tt.want)
			}
		})
	}
}

// Every status must pair with exactly one color: the two classifiers share
// branch order, so walking a grid of counts must never disagree.
func TestDarColorEstadoAgreesWithDarEstado(t *testing.T) {
	t.Parallel()

	pairs := map[Estado]Color{
		EstadoYaUsada:           ColorRed,
		EstadoPendiente:         ColorGreen,
		EstadoParcialmenteUsada: ColorYellow,
		EstadoUsadaDeMas:        ColorPurple,
	}

	for compradas := 0; compradas <= 6; compradas++ {
		for usadas := 0; usadas <= 9; usadas++ {
			estado := DarEstado(compradas, usadas)
			want, ok := pairs[estado]
			if !ok {
				t.Fatalf("DarEstado(%d, %d) returned unknown status %q", compradas, usadas, estado)
			}
			if got := DarColorEstado(compradas, usadas); got != want {
				t.Errorf("DarColorEstado(%d, %d) = %q, want %q for status %q",
					compradas, usadas, got, want, estado)
			}
		}
	}
}

func TestCantidadAAcreditar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		compradas int
		usadas    int
		want      int
	}{
		{"full remaining", 5, 0, 5},
		{"partial remaining", 5, 3, 2},
		{"nothing left", 5, 5, 0},
		{"overshoot clamps to zero", 5, 8, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := CantidadAAcreditar(tt.compradas, tt.usadas); got != tt.want {
				t.Errorf("CantidadAAcreditar(%d, %d) = %d, want %d", tt.compradas, tt.usadas, got, tt.want)
			}
		})
	}
}

func TestEsGuidValido(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"lowercase", "6f1c1bf4-9d1e-4a6b-8c3d-2f5e7a9b0c1d", true},
		{"uppercase accepted", "6F1C1BF4-9D1E-4A6B-8C3D-2F5E7A9B0C1D", true},
		{"mixed case", "6f1C1bF4-9d1e-4A6b-8c3d-2f5e7a9b0c1d", true},
		{"empty", "", false},
		{"too short", "6f1c1bf4-9d1e-4a6b-8c3d", false},
		{"too long", "6f1c1bf4-9d1e-4a6b-8c3d-2f5e7a9b0c1d00", false},
		{"missing hyphens", "6f1c1bf49d1e4a6b8c3d2f5e7a9b0c1d0000", false},
		{"non-hex characters", "6f1c1bg4-9d1e-4a6b-8c3d-2f5e7a9b0c1z", false},
		{"arbitrary url payload", "https://example.com/t/6f1c1bf4-9d1e", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := EsGuidValido(tt.id); got != tt.want {
				t.Errorf("EsGuidValido(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
