package roster

import "errors"

var (
	ErrAlumnoNotFound  = errors.New("alumno not found")
	ErrFuncionNotFound = errors.New("funcion not found")
	ErrNombreRequerido = errors.New("student name is required")
	ErrGrupoRequerido  = errors.New("group is required")

	// ErrAlumnoEnUso means tickets still reference the student, so the
	// delete was restricted.
	ErrAlumnoEnUso = errors.New("alumno still referenced by tickets")
)
