package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpensambles/entradasqr/internal/domain"
)

type UsuarioRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *UsuarioRepo) With(db DB) *UsuarioRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *UsuarioRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *UsuarioRepo) GetByEmail(ctx context.Context, email string) (*domain.Usuario, error) {
	const op = "postgres.UsuarioRepo.GetByEmail"

	db := r.handle()

	var u domain.Usuario
	err := db.QueryRow(ctx,
		`SELECT id, email, password_hash, creado
		 FROM usuarios WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Creado)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &u, nil
}

func (r *UsuarioRepo) Insert(ctx context.Context, email, passwordHash string) (int64, error) {
	const op = "postgres.UsuarioRepo.Insert"

	db := r.handle()

	var id int64
	err := db.QueryRow(ctx,
		`INSERT INTO usuarios(email, password_hash)
		 VALUES ($1, $2)
		 RETURNING id`,
		email, passwordHash,
	).Scan(&id)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}
