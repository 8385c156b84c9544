package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpensambles/entradasqr/internal/domain"
)

// HistorialRepo is the append-only audit trail. Entries are inserted in the
// same transaction as the mutation they record and are only ever listed or
// bulk-deleted by age cutoff.
type HistorialRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *HistorialRepo) With(db DB) *HistorialRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *HistorialRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// InsertBatch appends a set of audit entries in one round trip. Used by the
// mutation flows, which emit one entry per changed field.
func (r *HistorialRepo) InsertBatch(ctx context.Context, entries []domain.RegistroCambio) error {
	const op = "postgres.HistorialRepo.InsertBatch"

	if len(entries) == 0 {
		return nil
	}

	db := r.handle()

	batch := &pgx.Batch{}
	for _, e := range entries {
		ctxJSON, err := json.Marshal(e.ContextoRegistro)
		if err != nil {
			return wrapDBErr(op, err)
		}
		batch.Queue(
			`INSERT INTO historial_cambios(tabla, id_registro, contexto_registro,
			     operacion, campo, valor_anterior, valor_nuevo, email_usuario)
			 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))`,
			e.Tabla, e.IDRegistro, ctxJSON, e.Operacion,
			e.Campo, e.ValorAnterior, e.ValorNuevo, e.EmailUsuario,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// List returns the newest entries, capped at limit.
func (r *HistorialRepo) List(ctx context.Context, limit int) ([]domain.RegistroCambio, error) {
	const op = "postgres.HistorialRepo.List"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id_historial, tabla, id_registro, contexto_registro, operacion,
		        COALESCE(campo, ''), COALESCE(valor_anterior, ''),
		        COALESCE(valor_nuevo, ''), COALESCE(email_usuario, ''), created_at
		 FROM historial_cambios
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.RegistroCambio
	for rows.Next() {
		var rc domain.RegistroCambio
		var ctxJSON []byte
		if err := rows.Scan(
			&rc.ID,
			&rc.Tabla,
			&rc.IDRegistro,
			&ctxJSON,
			&rc.Operacion,
			&rc.Campo,
			&rc.ValorAnterior,
			&rc.ValorNuevo,
			&rc.EmailUsuario,
			&rc.CreatedAt,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}
		if len(ctxJSON) > 0 {
			_ = json.Unmarshal(ctxJSON, &rc.ContextoRegistro)
		}
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// CountBefore reports how many entries a purge with the given cutoff would
// delete, for the confirmation dialog.
func (r *HistorialRepo) CountBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "postgres.HistorialRepo.CountBefore"

	db := r.handle()

	var n int64
	err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM historial_cambios WHERE created_at < $1`,
		cutoff,
	).Scan(&n)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return n, nil
}

// DeleteBefore removes all entries older than the cutoff and returns the
// deleted count.
func (r *HistorialRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "postgres.HistorialRepo.DeleteBefore"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`DELETE FROM historial_cambios WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}
