// Package history exposes the audit trail: listing recent entries and the
// two-step purge (count, then delete) of entries older than a cutoff.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/mpensambles/entradasqr/internal/domain"
	postgresrepo "github.com/mpensambles/entradasqr/internal/repository/postgres"
)

const defaultLimit = 300

type Service struct {
	store *postgresrepo.Store
}

func New(store *postgresrepo.Store) *Service {
	return &Service{store: store}
}

// List returns the newest audit entries, capped at limit (300 when limit
// is not positive).
func (s *Service) List(ctx context.Context, limit int) ([]domain.RegistroCambio, error) {
	const op = "service.history.List"

	if limit <= 0 {
		limit = defaultLimit
	}

	out, err := s.store.Historial().List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// CountBefore reports how many entries a purge with this cutoff would
// remove. The purge UI shows the count before asking for confirmation.
func (s *Service) CountBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "service.history.CountBefore"

	n, err := s.store.Historial().CountBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return n, nil
}

// PurgeBefore deletes every entry older than the cutoff and returns the
// deleted count. The purge itself is deliberately not audited.
func (s *Service) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "service.history.PurgeBefore"

	n, err := s.store.Historial().DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return n, nil
}
