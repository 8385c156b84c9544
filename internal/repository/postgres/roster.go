package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpensambles/entradasqr/internal/domain"
	"github.com/mpensambles/entradasqr/internal/repository"
)

// RosterRepo covers students, groups, and functions. Groups and functions
// are reference data seeded per year; students are the only editable rows.
type RosterRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *RosterRepo) With(db DB) *RosterRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *RosterRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func scanAlumno(row pgx.Row, a *domain.Alumno) error {
	return row.Scan(
		&a.ID,
		&a.Nombre,
		&a.Creado,
		&a.IDGrupo,
		&a.NombreGrupo,
		&a.Anio,
		&a.Funcion,
	)
}

const alumnoColumns = `id_alumno, nombre_alumno, creado, id_grupo, nombre_grupo, anio, funcion`

func (r *RosterRepo) GetAlumno(ctx context.Context, id int64) (*domain.Alumno, error) {
	const op = "postgres.RosterRepo.GetAlumno"

	db := r.handle()

	var a domain.Alumno
	err := scanAlumno(db.QueryRow(ctx,
		`SELECT `+alumnoColumns+` FROM vista_alumnos WHERE id_alumno = $1`,
		id,
	), &a)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &a, nil
}

// ListAlumnos lists the students of a year, optionally narrowed to one
// group, ordered by name.
func (r *RosterRepo) ListAlumnos(ctx context.Context, anio int, idGrupo string) ([]domain.Alumno, error) {
	const op = "postgres.RosterRepo.ListAlumnos"

	db := r.handle()

	var rows pgx.Rows
	var err error

	if idGrupo != "" {
		rows, err = db.Query(ctx,
			`SELECT `+alumnoColumns+`
			 FROM vista_alumnos
			 WHERE anio = $1 AND id_grupo = $2
			 ORDER BY nombre_alumno`,
			anio, idGrupo,
		)
	} else {
		rows, err = db.Query(ctx,
			`SELECT `+alumnoColumns+`
			 FROM vista_alumnos
			 WHERE anio = $1
			 ORDER BY nombre_alumno`,
			anio,
		)
	}
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Alumno
	for rows.Next() {
		var a domain.Alumno
		if err := scanAlumno(rows, &a); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *RosterRepo) InsertAlumno(ctx context.Context, nombre, idGrupo string) (int64, error) {
	const op = "postgres.RosterRepo.InsertAlumno"

	db := r.handle()

	var id int64
	err := db.QueryRow(ctx,
		`INSERT INTO alumnos(nombre, id_grupo)
		 VALUES ($1, $2)
		 RETURNING id`,
		nombre, idGrupo,
	).Scan(&id)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *RosterRepo) UpdateAlumno(ctx context.Context, id int64, nombre, idGrupo string) error {
	const op = "postgres.RosterRepo.UpdateAlumno"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE alumnos SET nombre = $2, id_grupo = $3 WHERE id = $1`,
		id, nombre, idGrupo,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

func (r *RosterRepo) DeleteAlumno(ctx context.Context, id int64) error {
	const op = "postgres.RosterRepo.DeleteAlumno"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM alumnos WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// ListGrupos lists the groups of a year ordered by display order,
// optionally narrowed to one function.
func (r *RosterRepo) ListGrupos(ctx context.Context, anio int, funcion string) ([]domain.Grupo, error) {
	const op = "postgres.RosterRepo.ListGrupos"

	db := r.handle()

	var rows pgx.Rows
	var err error

	if funcion != "" {
		rows, err = db.Query(ctx,
			`SELECT id, nombre_corto, year, orden, nombre_funcion
			 FROM grupos
			 WHERE year = $1 AND nombre_funcion = $2
			 ORDER BY orden`,
			anio, funcion,
		)
	} else {
		rows, err = db.Query(ctx,
			`SELECT id, nombre_corto, year, orden, nombre_funcion
			 FROM grupos
			 WHERE year = $1
			 ORDER BY orden`,
			anio,
		)
	}
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Grupo
	for rows.Next() {
		var g domain.Grupo
		if err := rows.Scan(&g.ID, &g.Nombre, &g.Anio, &g.Orden, &g.Funcion); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// ListFunciones lists the functions of a year in display order.
func (r *RosterRepo) ListFunciones(ctx context.Context, anio int) ([]domain.Funcion, error) {
	const op = "postgres.RosterRepo.ListFunciones"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT nombre_funcion, year, orden, lugar, fecha_funcion, hora_funcion
		 FROM funciones
		 WHERE year = $1
		 ORDER BY orden`,
		anio,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Funcion
	for rows.Next() {
		var f domain.Funcion
		if err := rows.Scan(&f.Nombre, &f.Anio, &f.Orden, &f.Lugar, &f.Fecha, &f.Hora); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// GetFuncion retrieves one function of a year, used when rendering the
// email (venue, date, time placeholders).
func (r *RosterRepo) GetFuncion(ctx context.Context, anio int, nombre string) (*domain.Funcion, error) {
	const op = "postgres.RosterRepo.GetFuncion"

	db := r.handle()

	var f domain.Funcion
	err := db.QueryRow(ctx,
		`SELECT nombre_funcion, year, orden, lugar, fecha_funcion, hora_funcion
		 FROM funciones
		 WHERE year = $1 AND nombre_funcion = $2`,
		anio, nombre,
	).Scan(&f.Nombre, &f.Anio, &f.Orden, &f.Lugar, &f.Fecha, &f.Hora)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &f, nil
}
