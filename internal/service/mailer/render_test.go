package mailer

import (
	"strings"
	"testing"
	"time"

	"github.com/mpensambles/entradasqr/internal/domain"
)

func testVista() *domain.VistaEntrada {
	return &domain.VistaEntrada{
		NombreComprador: "María García",
		Compradas:       3,
		NombreAlumno:    "Lucía Pérez",
		NombreGrupo:     "3ro A",
		Funcion:         "Gala de Invierno",
	}
}

func testFuncion() *domain.Funcion {
	return &domain.Funcion{
		Nombre: "Gala de Invierno",
		Lugar:  "Teatro Municipal",
		Fecha:  time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
		Hora:   "20:00",
	}
}

func TestSustituir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"buyer and quantity",
			"Hola [nombre_comprador], compraste [cantidad_comprada] entradas.",
			"Hola María García, compraste 3 entradas.",
		},
		{
			"student group and function",
			"[nombre_alumno] ([nombre_grupo]) actúa en [funcion].",
			"Lucía Pérez (3ro A) actúa en Gala de Invierno.",
		},
		{
			"venue date and time",
			"[lugar], [fecha] a las [hora]",
			"Teatro Municipal, 15/07/2026 a las 20:00",
		},
		{
			"unknown placeholders pass through",
			"hola [desconocido]",
			"hola [desconocido]",
		},
	}

	v := testVista()
	f := testFuncion()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := sustituir(tt.in, v, f); got != tt.want {
				t.Errorf("sustituir(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSustituirSingular(t *testing.T) {
	t.Parallel()

	v := testVista()
	v.Compradas = 1

	got := sustituir("Compraste [cantidad_comprada] entradas.", v, testFuncion())
	want := "Compraste 1 entrada."
	if got != want {
		t.Errorf("sustituir() = %q, want %q", got, want)
	}
}

func TestMarcadorQRDivideElCuerpo(t *testing.T) {
	t.Parallel()

	cuerpo := "Antes del código.\n\n[codigo_qr]\n\nDespués del código."
	antes, despues, found := strings.Cut(cuerpo, marcadorQR)
	if !found {
		t.Fatal("marker not found")
	}
	if !strings.Contains(antes, "Antes") || strings.Contains(antes, "Después") {
		t.Errorf("pre segment wrong: %q", antes)
	}
	if !strings.Contains(despues, "Después") || strings.Contains(despues, "Antes") {
		t.Errorf("post segment wrong: %q", despues)
	}
}

func TestRenderMarkdown(t *testing.T) {
	t.Parallel()

	html, err := renderMarkdown("Hola **María**")
	if err != nil {
		t.Fatalf("renderMarkdown() error = %v", err)
	}
	if !strings.Contains(html, "<strong>María</strong>") {
		t.Errorf("renderMarkdown() = %q, want bold rendering", html)
	}
}

func TestQRImageURL(t *testing.T) {
	t.Parallel()

	got := qrImageURL("https://freeqr.com/api/v1/", "6f1c1bf4-9d1e-4a6b-8c3d-2f5e7a9b0c1d")
	want := "https://freeqr.com/api/v1/?data=6f1c1bf4-9d1e-4a6b-8c3d-2f5e7a9b0c1d&size=300x300&color=000&bgcolor=fff"
	if got != want {
		t.Errorf("qrImageURL() = %q, want %q", got, want)
	}
}
