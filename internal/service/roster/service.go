// Package roster serves the reference data behind the ticket screens:
// functions and groups (seeded per year, read-only) and students (the one
// editable roster table).
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mpensambles/entradasqr/internal/audit"
	"github.com/mpensambles/entradasqr/internal/domain"
	"github.com/mpensambles/entradasqr/internal/repository"
	postgresrepo "github.com/mpensambles/entradasqr/internal/repository/postgres"
	redisrepo "github.com/mpensambles/entradasqr/internal/repository/redis"
	"github.com/mpensambles/entradasqr/internal/uow"
)

type Config struct {
	AlumnosTTL   time.Duration
	GruposTTL    time.Duration
	FuncionesTTL time.Duration
}

type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	uow   *uow.UoW
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.AlumnosTTL <= 0 {
		cfg.AlumnosTTL = 60 * time.Second
	}

	if cfg.GruposTTL <= 0 {
		cfg.GruposTTL = 90 * time.Second
	}

	if cfg.FuncionesTTL <= 0 {
		cfg.FuncionesTTL = 90 * time.Second
	}

	return &Service{
		store: store,
		cache: cache,
		uow:   uow.NewUoW(store),
		cfg:   cfg,
	}
}

// ListAlumnos returns the students of a year through the cache, optionally
// narrowed to one group.
func (s *Service) ListAlumnos(ctx context.Context, anio int, idGrupo string) ([]domain.Alumno, error) {
	const op = "service.roster.ListAlumnos"

	key := redisrepo.KeyAlumnosDelAnio(anio)
	if idGrupo != "" {
		key = redisrepo.KeyAlumnosPorGrupo(anio, idGrupo)
	}

	out, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.AlumnosTTL,
		func(ctx context.Context) ([]domain.Alumno, error) {
			return s.store.Roster().ListAlumnos(ctx, anio, idGrupo)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) GetAlumno(ctx context.Context, id int64) (*domain.Alumno, error) {
	const op = "service.roster.GetAlumno"

	a, err := s.store.Roster().GetAlumno(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrAlumnoNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return a, nil
}

type AlumnoParams struct {
	Nombre       string
	IDGrupo      string
	EmailUsuario string
}

func (p AlumnoParams) validate() error {
	if strings.TrimSpace(p.Nombre) == "" {
		return ErrNombreRequerido
	}
	if strings.TrimSpace(p.IDGrupo) == "" {
		return ErrGrupoRequerido
	}
	return nil
}

// CreateAlumno adds a student to a group, recording the insert in the audit
// trail and dropping the year's roster caches.
func (s *Service) CreateAlumno(ctx context.Context, p AlumnoParams) (*domain.Alumno, error) {
	const op = "service.roster.CreateAlumno"

	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	nombre := strings.TrimSpace(p.Nombre)

	var alumno *domain.Alumno

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		id, err := s.store.Roster().With(tx).InsertAlumno(ctx, nombre, p.IDGrupo)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		a, err := s.store.Roster().With(tx).GetAlumno(ctx, id)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		alumno = a

		entries := audit.InsertEntries(
			"alumnos",
			fmt.Sprintf("%d", id),
			contextoAlumno(a),
			snapshotAlumno(nombre, p.IDGrupo),
			p.EmailUsuario,
		)
		if err := s.store.Historial().With(tx).InsertBatch(ctx, entries); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateAlumnos(ctx, a.Anio)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return alumno, nil
}

// UpdateAlumno renames a student or moves them to another group.
func (s *Service) UpdateAlumno(ctx context.Context, id int64, p AlumnoParams) (*domain.Alumno, error) {
	const op = "service.roster.UpdateAlumno"

	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	nombre := strings.TrimSpace(p.Nombre)

	var alumno *domain.Alumno

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		old, err := s.store.Roster().With(tx).GetAlumno(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrAlumnoNotFound)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.store.Roster().With(tx).UpdateAlumno(ctx, id, nombre, p.IDGrupo); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		a, err := s.store.Roster().With(tx).GetAlumno(ctx, id)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		alumno = a

		entries := audit.UpdateEntries(
			"alumnos",
			fmt.Sprintf("%d", id),
			contextoAlumno(a),
			snapshotAlumno(old.Nombre, old.IDGrupo),
			snapshotAlumno(nombre, p.IDGrupo),
			p.EmailUsuario,
		)
		if err := s.store.Historial().With(tx).InsertBatch(ctx, entries); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateAlumnos(ctx, a.Anio)
			if old.Anio != a.Anio {
				_ = s.cache.InvalidateAlumnos(ctx, old.Anio)
			}
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return alumno, nil
}

// DeleteAlumno removes a student. The database restricts the delete while
// tickets still reference the student, surfacing as a conflict.
func (s *Service) DeleteAlumno(ctx context.Context, id int64, emailUsuario string) error {
	const op = "service.roster.DeleteAlumno"

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		a, err := s.store.Roster().With(tx).GetAlumno(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrAlumnoNotFound)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.store.Roster().With(tx).DeleteAlumno(ctx, id); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s:%w", op, ErrAlumnoEnUso)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		entries := audit.DeleteEntry("alumnos", fmt.Sprintf("%d", id), contextoAlumno(a), emailUsuario)
		if err := s.store.Historial().With(tx).InsertBatch(ctx, entries); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateAlumnos(ctx, a.Anio)
		})

		return nil
	})
}

// ListGrupos returns the groups of a year in display order through the
// cache, optionally narrowed to one function.
func (s *Service) ListGrupos(ctx context.Context, anio int, funcion string) ([]domain.Grupo, error) {
	const op = "service.roster.ListGrupos"

	out, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyGruposDelAnio(anio),
		s.cfg.GruposTTL,
		func(ctx context.Context) ([]domain.Grupo, error) {
			return s.store.Roster().ListGrupos(ctx, anio, "")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if funcion == "" {
		return out, nil
	}

	narrowed := make([]domain.Grupo, 0, len(out))
	for _, g := range out {
		if g.Funcion == funcion {
			narrowed = append(narrowed, g)
		}
	}

	return narrowed, nil
}

// ListFunciones returns the functions of a year in display order through
// the cache.
func (s *Service) ListFunciones(ctx context.Context, anio int) ([]domain.Funcion, error) {
	const op = "service.roster.ListFunciones"

	out, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyFuncionesDelAnio(anio),
		s.cfg.FuncionesTTL,
		func(ctx context.Context) ([]domain.Funcion, error) {
			return s.store.Roster().ListFunciones(ctx, anio)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) GetFuncion(ctx context.Context, anio int, nombre string) (*domain.Funcion, error) {
	const op = "service.roster.GetFuncion"

	f, err := s.store.Roster().GetFuncion(ctx, anio, nombre)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrFuncionNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return f, nil
}

func snapshotAlumno(nombre, idGrupo string) audit.Snapshot {
	return audit.Snapshot{
		Fields: []string{"nombre", "id_grupo"},
		Values: map[string]string{
			"nombre":   nombre,
			"id_grupo": idGrupo,
		},
	}
}

func contextoAlumno(a *domain.Alumno) map[string]string {
	return map[string]string{
		"nombre_alumno": a.Nombre,
		"nombre_grupo":  a.NombreGrupo,
		"funcion":       a.Funcion,
	}
}
