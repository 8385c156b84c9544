package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpensambles/entradasqr/internal/domain"
	"github.com/mpensambles/entradasqr/internal/repository"
)

type TemplateRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *TemplateRepo) With(db DB) *TemplateRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *TemplateRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *TemplateRepo) Get(ctx context.Context, key string) (*domain.EmailTemplate, error) {
	const op = "postgres.TemplateRepo.Get"

	db := r.handle()

	var t domain.EmailTemplate
	err := db.QueryRow(ctx,
		`SELECT asunto, template, updated_at
		 FROM email_templates WHERE key = $1`,
		key,
	).Scan(&t.Asunto, &t.Contenido, &t.UpdatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &t, nil
}

func (r *TemplateRepo) Update(ctx context.Context, key, asunto, contenido string) error {
	const op = "postgres.TemplateRepo.Update"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE email_templates
		 SET asunto = $2, template = $3, updated_at = now()
		 WHERE key = $1`,
		key, asunto, contenido,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}
