// Package mailer renders the "ticket generated" confirmation email from the
// editable markdown template stored in the database.
package mailer

import (
	"context"
	"errors"
	"fmt"
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

// TemplateKeyEntradaGenerada is the key of the singleton confirmation
// template.
const TemplateKeyEntradaGenerada = "entrada_generada"

type Config struct {
	// QRBaseURL is the external QR image generator endpoint; the ticket id
	// goes in its data parameter.
	QRBaseURL   string
	TemplateTTL time.Duration
}

type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	uow   *uow.UoW
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.TemplateTTL <= 0 {
		cfg.TemplateTTL = time.Hour
	}

	if cfg.QRBaseURL == "" {
		cfg.QRBaseURL = "https://freeqr.com/api/v1/"
	}

	return &Service{
		store: store,
		cache: cache,
		uow:   uow.NewUoW(store),
		cfg:   cfg,
	}
}

// GetTemplate returns the template through the long-TTL cache. Templates
// change rarely, so the hour of staleness is acceptable and updates
// invalidate explicitly anyway.
func (s *Service) GetTemplate(ctx context.Context, key string) (*domain.EmailTemplate, error) {
	const op = "service.mailer.GetTemplate"

	t, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyEmailTemplate(key),
		s.cfg.TemplateTTL,
		func(ctx context.Context) (domain.EmailTemplate, error) {
			t, err := s.store.Templates().Get(ctx, key)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.EmailTemplate{}, ErrTemplateNotFound
				}

				return domain.EmailTemplate{}, err
			}

			return *t, nil
		},
	)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrTemplateNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &t, nil
}

type UpdateTemplateParams struct {
	Asunto       string
	Contenido    string
	EmailUsuario string
}

// UpdateTemplate rewrites the subject and markdown body, with a field-level
// audit diff and cache invalidation after commit.
func (s *Service) UpdateTemplate(ctx context.Context, key string, p UpdateTemplateParams) (*domain.EmailTemplate, error) {
	const op = "service.mailer.UpdateTemplate"

	if strings.TrimSpace(p.Asunto) == "" {
		return nil, fmt.Errorf("%s:%w", op, ErrAsuntoRequerido)
	}

	var updated *domain.EmailTemplate

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		old, err := s.store.Templates().With(tx).Get(ctx, key)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrTemplateNotFound)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.store.Templates().With(tx).Update(ctx, key, p.Asunto, p.Contenido); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		t, err := s.store.Templates().With(tx).Get(ctx, key)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		updated = t

		entries := audit.UpdateEntries(
			"email_templates",
			key,
			map[string]string{"template": key},
			snapshotTemplate(old),
			snapshotTemplate(t),
			p.EmailUsuario,
		)
		if err := s.store.Historial().With(tx).InsertBatch(ctx, entries); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEmailTemplate(ctx, key)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// RenderEmail assembles the confirmation email for a ticket: placeholders
// substituted, template split at the QR marker, both halves converted from
// markdown to HTML.
func (s *Service) RenderEmail(ctx context.Context, entradaID uuid.UUID) (*RenderedEmail, error) {
	const op = "service.mailer.RenderEmail"

	v, err := s.store.Entradas().GetVista(ctx, entradaID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrEntradaNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	f, err := s.store.Roster().GetFuncion(ctx, v.Anio, v.Funcion)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	t, err := s.GetTemplate(ctx, TemplateKeyEntradaGenerada)
	if err != nil {
		return nil, err
	}

	asunto := sustituir(t.Asunto, v, f)
	cuerpo := sustituir(t.Contenido, v, f)

	antes, despues, _ := strings.Cut(cuerpo, marcadorQR)

	htmlAntes, err := renderMarkdown(antes)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	htmlDespues, err := renderMarkdown(despues)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &RenderedEmail{
		Para:        v.EmailComprador,
		Asunto:      asunto,
		HTMLAntes:   htmlAntes,
		HTMLDespues: htmlDespues,
		QRURL:       qrImageURL(s.cfg.QRBaseURL, entradaID.String()),
	}, nil
}

func snapshotTemplate(t *domain.EmailTemplate) audit.Snapshot {
	return audit.Snapshot{
		Fields: []string{"asunto", "template"},
		Values: map[string]string{
			"asunto":   t.Asunto,
			"template": t.Contenido,
		},
	}
}
