package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpensambles/entradasqr/internal/domain"
	"github.com/mpensambles/entradasqr/internal/repository"
)

type EntradaRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *EntradaRepo) With(db DB) *EntradaRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EntradaRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const vistaColumns = `id, nombre_comprador, COALESCE(email_comprador, ''), compradas,
	usadas, creada, id_alumno, nombre_alumno, id_grupo, nombre_grupo, funcion, anio`

func scanVista(row pgx.Row, v *domain.VistaEntrada) error {
	return row.Scan(
		&v.ID,
		&v.NombreComprador,
		&v.EmailComprador,
		&v.Compradas,
		&v.Usadas,
		&v.Creada,
		&v.IDAlumno,
		&v.NombreAlumno,
		&v.IDGrupo,
		&v.NombreGrupo,
		&v.Funcion,
		&v.Anio,
	)
}

// GetVista retrieves the flat ticket view by ticket ID.
//
// Returns repository.ErrNotFound when no such ticket exists.
func (r *EntradaRepo) GetVista(ctx context.Context, id uuid.UUID) (*domain.VistaEntrada, error) {
	const op = "postgres.EntradaRepo.GetVista"

	db := r.handle()

	var v domain.VistaEntrada
	err := scanVista(db.QueryRow(ctx,
		`SELECT `+vistaColumns+`
		 FROM vista_entradas WHERE id = $1`,
		id,
	), &v)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &v, nil
}

// ListVista lists the ticket views of a year, optionally narrowed to one
// function, ordered by function then group order (the printable listing
// order). Finer filtering and the status sort are applied in memory by the
// service layer.
func (r *EntradaRepo) ListVista(ctx context.Context, anio int, funcion string) ([]domain.VistaEntrada, error) {
	const op = "postgres.EntradaRepo.ListVista"

	db := r.handle()

	var rows pgx.Rows
	var err error

	if funcion != "" {
		rows, err = db.Query(ctx,
			`SELECT `+vistaColumns+`
			 FROM vista_entradas
			 WHERE anio = $1 AND funcion = $2
			 ORDER BY orden_funcion, orden_grupo, nombre_comprador`,
			anio, funcion,
		)
	} else {
		rows, err = db.Query(ctx,
			`SELECT `+vistaColumns+`
			 FROM vista_entradas
			 WHERE anio = $1
			 ORDER BY orden_funcion, orden_grupo, nombre_comprador`,
			anio,
		)
	}
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.VistaEntrada
	for rows.Next() {
		var v domain.VistaEntrada
		if err := scanVista(rows, &v); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// Get retrieves the raw ticket row, used by the edit flow to diff old
// against new field values for the audit trail.
func (r *EntradaRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Entrada, error) {
	const op = "postgres.EntradaRepo.Get"

	db := r.handle()

	var e domain.Entrada
	err := db.QueryRow(ctx,
		`SELECT id, nombre_comprador, COALESCE(email_comprador, ''), cantidad, usadas, id_alumno, creada
		 FROM entradas WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.NombreComprador, &e.EmailComprador, &e.Cantidad, &e.Usadas, &e.IDAlumno, &e.Creada)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &e, nil
}

// Insert stores a new ticket. The ID is minted by the caller before the
// write so the QR code can be rendered immediately.
func (r *EntradaRepo) Insert(ctx context.Context, e *domain.Entrada) error {
	const op = "postgres.EntradaRepo.Insert"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO entradas(id, nombre_comprador, email_comprador, cantidad, id_alumno)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5)`,
		e.ID, e.NombreComprador, e.EmailComprador, e.Cantidad, e.IDAlumno,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// Update rewrites the editable fields of a ticket. The used count is
// deliberately not part of the statement; only Redeem touches it.
func (r *EntradaRepo) Update(ctx context.Context, e *domain.Entrada) error {
	const op = "postgres.EntradaRepo.Update"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE entradas
		 SET nombre_comprador = $2,
		     email_comprador = NULLIF($3, ''),
		     cantidad = $4,
		     id_alumno = $5
		 WHERE id = $1`,
		e.ID, e.NombreComprador, e.EmailComprador, e.Cantidad, e.IDAlumno,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

func (r *EntradaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.EntradaRepo.Delete"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM entradas WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// Redeem atomically increments the used count by quantity and returns the
// resulting count. A single statement, so concurrent redemptions serialize
// on the row without any client-side coordination; the sum may overshoot
// the purchased quantity, which the status logic labels rather than
// rejects.
func (r *EntradaRepo) Redeem(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	const op = "postgres.EntradaRepo.Redeem"

	db := r.handle()

	var usadas int
	err := db.QueryRow(ctx,
		`UPDATE entradas
		 SET usadas = usadas + $2
		 WHERE id = $1
		 RETURNING usadas`,
		id, quantity,
	).Scan(&usadas)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return usadas, nil
}
