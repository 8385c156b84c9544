package accreditation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

// A malformed payload must be rejected by shape alone. The nil store proves
// no lookup is attempted.
func TestResolveScanRejectsMalformedPayloadWithoutLookup(t *testing.T) {
	t.Parallel()

	s := New(nil, nil, nil, nil)

	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"random text", "not-a-ticket"},
		{"truncated uuid", "6f1c1bf4-9d1e-4a6b-8c3d"},
		{"url payload", "https://tickets.example.com/6f1c1bf4"},
		{"non-hex uuid shape", "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := s.ResolveScan(context.Background(), tt.payload)
			if !errors.Is(err, ErrCodigoInvalido) {
				t.Errorf("ResolveScan(%q) error = %v, want ErrCodigoInvalido", tt.payload, err)
			}
		})
	}
}

func TestAcreditarRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	s := New(nil, nil, nil, nil)

	for _, cantidad := range []int{0, -1, -10} {
		_, err := s.Acreditar(context.Background(), uuid.Nil, cantidad, "staff@example.com", "")
		if !errors.Is(err, ErrCantidadInvalida) {
			t.Errorf("Acreditar(cantidad=%d) error = %v, want ErrCantidadInvalida", cantidad, err)
		}
	}
}
