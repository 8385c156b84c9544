package tickets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mpensambles/entradasqr/internal/audit"
	"github.com/mpensambles/entradasqr/internal/domain"
	"github.com/mpensambles/entradasqr/internal/repository"
	postgresrepo "github.com/mpensambles/entradasqr/internal/repository/postgres"
	redisrepo "github.com/mpensambles/entradasqr/internal/repository/redis"
	"github.com/mpensambles/entradasqr/internal/uow"
)

type Config struct {
	EntradaTTL time.Duration
	ListaTTL   time.Duration
}

type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	pubsub *redisrepo.EntradasPubSub
	uow    *uow.UoW
	cfg    Config
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.EntradasPubSub,
	cfg Config,
) *Service {
	if cfg.EntradaTTL <= 0 {
		cfg.EntradaTTL = 30 * time.Second
	}

	if cfg.ListaTTL <= 0 {
		cfg.ListaTTL = 30 * time.Second
	}

	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
		cfg:    cfg,
	}
}

// IssueParams are the issuance form fields. Email is optional; everything
// else is required.
type IssueParams struct {
	NombreComprador string
	EmailComprador  string
	Cantidad        int
	IDAlumno        int64
	EmailUsuario    string
}

func (p IssueParams) validate() error {
	if strings.TrimSpace(p.NombreComprador) == "" {
		return ErrNombreRequerido
	}
	if p.IDAlumno <= 0 {
		return ErrAlumnoRequerido
	}
	if p.Cantidad < 1 {
		return ErrCantidadInvalida
	}
	return nil
}

// Issue creates a ticket. The ID is minted here, before the write, so the
// caller can render the QR code and confirmation page from the response
// without a second round trip. IDs are never reused; a collision is
// treated as astronomically improbable and unhandled.
//
// Returns:
//   - *domain.VistaEntrada: the created ticket's flat view.
//   - error: tickets.ErrNombreRequerido, ErrAlumnoRequerido, or
//     ErrCantidadInvalida on validation failure; ErrEntradaConflict on a
//     duplicate insert.
func (s *Service) Issue(ctx context.Context, p IssueParams) (*domain.VistaEntrada, error) {
	const op = "service.tickets.Issue"

	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	e := domain.Entrada{
		ID:              uuid.New(),
		NombreComprador: strings.TrimSpace(p.NombreComprador),
		EmailComprador:  strings.TrimSpace(p.EmailComprador),
		Cantidad:        p.Cantidad,
		IDAlumno:        p.IDAlumno,
	}

	var vista *domain.VistaEntrada

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		if err := s.store.Entradas().With(tx).Insert(ctx, &e); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s:%w", op, ErrEntradaConflict)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		v, err := s.store.Entradas().With(tx).GetVista(ctx, e.ID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		vista = v

		entries := audit.InsertEntries(
			"entradas",
			e.ID.String(),
			contextoDe(v),
			snapshotEntrada(&e),
			p.EmailUsuario,
		)
		if err := s.store.Historial().With(tx).InsertBatch(ctx, entries); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEntrada(ctx, e.ID.String(), v.Anio)
			_ = s.pubsub.PublishEntradaChanged(ctx, e.ID.String(), v.Anio)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return vista, nil
}

// UpdateParams are the editable ticket fields. The used count is absent on
// purpose: only the redemption command writes it.
type UpdateParams struct {
	ID              uuid.UUID
	NombreComprador string
	EmailComprador  string
	Cantidad        int
	IDAlumno        int64
	EmailUsuario    string
}

// Update rewrites the buyer fields, quantity, and student assignment of a
// ticket, recording a field-level audit entry for every changed value.
func (s *Service) Update(ctx context.Context, p UpdateParams) (*domain.VistaEntrada, error) {
	const op = "service.tickets.Update"

	if err := (IssueParams{
		NombreComprador: p.NombreComprador,
		Cantidad:        p.Cantidad,
		IDAlumno:        p.IDAlumno,
	}).validate(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var vista *domain.VistaEntrada

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		old, err := s.store.Entradas().With(tx).Get(ctx, p.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrEntradaNotFound)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		updated := domain.Entrada{
			ID:              p.ID,
			NombreComprador: strings.TrimSpace(p.NombreComprador),
			EmailComprador:  strings.TrimSpace(p.EmailComprador),
			Cantidad:        p.Cantidad,
			Usadas:          old.Usadas,
			IDAlumno:        p.IDAlumno,
		}

		if err := s.store.Entradas().With(tx).Update(ctx, &updated); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		v, err := s.store.Entradas().With(tx).GetVista(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		vista = v

		entries := audit.UpdateEntries(
			"entradas",
			p.ID.String(),
			contextoDe(v),
			snapshotEntrada(old),
			snapshotEntrada(&updated),
			p.EmailUsuario,
		)
		if err := s.store.Historial().With(tx).InsertBatch(ctx, entries); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEntrada(ctx, p.ID.String(), v.Anio)
			_ = s.pubsub.PublishEntradaChanged(ctx, p.ID.String(), v.Anio)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return vista, nil
}

// Delete removes a ticket after the explicit confirm step, leaving a
// single DELETE audit entry whose context identifies the ticket to a
// human reader.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, emailUsuario string) error {
	const op = "service.tickets.Delete"

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		v, err := s.store.Entradas().With(tx).GetVista(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrEntradaNotFound)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.store.Entradas().With(tx).Delete(ctx, id); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		entries := audit.DeleteEntry("entradas", id.String(), contextoDe(v), emailUsuario)
		if err := s.store.Historial().With(tx).InsertBatch(ctx, entries); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEntrada(ctx, id.String(), v.Anio)
			_ = s.pubsub.PublishEntradaChanged(ctx, id.String(), v.Anio)
		})

		return nil
	})
}

// Get retrieves one ticket view through the short-TTL cache.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.VistaEntrada, error) {
	const op = "service.tickets.Get"

	key := redisrepo.KeyEntrada(id.String())

	vista, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.EntradaTTL,
		func(ctx context.Context) (domain.VistaEntrada, error) {
			v, err := s.store.Entradas().GetVista(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.VistaEntrada{}, ErrEntradaNotFound
				}

				return domain.VistaEntrada{}, err
			}

			return *v, nil
		},
	)
	if err != nil {
		if errors.Is(err, ErrEntradaNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrEntradaNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &vista, nil
}

type ListParams struct {
	Anio    int
	Funcion string
	Filtros Filtros
}

// List returns the filtered, sorted ticket views of a year (optionally of
// one function). The working set comes from the cache; filtering and the
// status sort run in memory per request.
func (s *Service) List(ctx context.Context, p ListParams) ([]domain.VistaEntrada, error) {
	const op = "service.tickets.List"

	key := redisrepo.KeyEntradasDelAnio(p.Anio)
	if p.Funcion != "" {
		key = redisrepo.KeyEntradasPorFuncion(p.Anio, p.Funcion)
	}

	working, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.ListaTTL,
		func(ctx context.Context) ([]domain.VistaEntrada, error) {
			return s.store.Entradas().ListVista(ctx, p.Anio, p.Funcion)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	out := Filtrar(working, p.Filtros)
	Ordenar(out)

	return out, nil
}

func snapshotEntrada(e *domain.Entrada) audit.Snapshot {
	return audit.Snapshot{
		Fields: []string{"nombre_comprador", "email_comprador", "cantidad", "id_alumno"},
		Values: map[string]string{
			"nombre_comprador": e.NombreComprador,
			"email_comprador":  e.EmailComprador,
			"cantidad":         strconv.Itoa(e.Cantidad),
			"id_alumno":        strconv.FormatInt(e.IDAlumno, 10),
		},
	}
}

func contextoDe(v *domain.VistaEntrada) map[string]string {
	return map[string]string{
		"nombre_comprador": v.NombreComprador,
		"nombre_alumno":    v.NombreAlumno,
		"nombre_grupo":     v.NombreGrupo,
		"funcion":          v.Funcion,
	}
}
