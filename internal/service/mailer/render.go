package mailer

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/mpensambles/entradasqr/internal/domain"
)

// marcadorQR splits the template: markdown before it renders above the QR
// image, markdown after it renders below.
const marcadorQR = "[codigo_qr]"

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderedEmail is the assembled confirmation email. Subject and the two
// HTML halves around the QR image are kept separate so the transport can
// inline the image between them.
type RenderedEmail struct {
	Para        string `json:"para"`
	Asunto      string `json:"asunto"`
	HTMLAntes   string `json:"html_antes"`
	HTMLDespues string `json:"html_despues"`
	QRURL       string `json:"qr_url"`
}

// sustituir fills the buyer/ticket placeholders of one template string. The
// singular fix runs after substitution so "1 entradas" never reaches the
// buyer.
func sustituir(s string, v *domain.VistaEntrada, f *domain.Funcion) string {
	r := strings.NewReplacer(
		"[nombre_comprador]", v.NombreComprador,
		"[cantidad_comprada]", strconv.Itoa(v.Compradas),
		"[nombre_alumno]", v.NombreAlumno,
		"[nombre_grupo]", v.NombreGrupo,
		"[funcion]", v.Funcion,
		"[lugar]", f.Lugar,
		"[fecha]", f.Fecha.Format("02/01/2006"),
		"[hora]", f.Hora,
	)

	out := r.Replace(s)
	out = strings.ReplaceAll(out, "1 entradas", "1 entrada")

	return out
}

func renderMarkdown(s string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// qrImageURL builds the QR image link for a ticket id against the
// configured generator endpoint.
func qrImageURL(base string, entradaID string) string {
	return fmt.Sprintf("%s?data=%s&size=300x300&color=000&bgcolor=fff", base, url.QueryEscape(entradaID))
}
