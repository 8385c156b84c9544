package domain

import (
	"time"

	"github.com/google/uuid"
)

// Funcion is one scheduled performance. Groups, and through them students
// and tickets, are scoped to a function within a year.
type Funcion struct {
	Nombre string    `json:"nombre_funcion"`
	Anio   int       `json:"anio"`
	Orden  int       `json:"orden"`
	Lugar  string    `json:"lugar"`
	Fecha  time.Time `json:"fecha_funcion"`
	Hora   string    `json:"hora_funcion"`
}

// Grupo is a cohort of students performing in a given function.
type Grupo struct {
	ID      string `json:"id_grupo"`
	Nombre  string `json:"nombre_grupo"`
	Anio    int    `json:"anio"`
	Orden   int    `json:"orden"`
	Funcion string `json:"funcion"`
}

type Alumno struct {
	ID     int64     `json:"id_alumno"`
	Nombre string    `json:"nombre_alumno"`
	Creado time.Time `json:"creado"`
	// Denormalized group/function context, as the roster views expose it.
	IDGrupo     string `json:"id_grupo"`
	NombreGrupo string `json:"nombre_grupo"`
	Anio        int    `json:"anio"`
	Funcion     string `json:"funcion"`
}

// Entrada is one issuance record backing one QR code, redeemable for a
// purchased quantity of entries. Usadas is mutated only by the redemption
// command, never by edits.
type Entrada struct {
	ID              uuid.UUID `json:"id"`
	NombreComprador string    `json:"nombre_comprador"`
	EmailComprador  string    `json:"email_comprador,omitempty"`
	Cantidad        int       `json:"cantidad"`
	Usadas          int       `json:"usadas"`
	IDAlumno        int64     `json:"id_alumno"`
	Creada          time.Time `json:"creada"`
}

// VistaEntrada is the flat ticket row the listing and accreditation screens
// consume: an Entrada joined with its student, group, and function.
type VistaEntrada struct {
	ID              uuid.UUID `json:"id"`
	NombreComprador string    `json:"nombre_comprador"`
	EmailComprador  string    `json:"email_comprador,omitempty"`
	Compradas       int       `json:"compradas"`
	Usadas          int       `json:"usadas"`
	Creada          time.Time `json:"creada"`
	IDAlumno        int64     `json:"id_alumno"`
	NombreAlumno    string    `json:"nombre_alumno"`
	IDGrupo         string    `json:"id_grupo"`
	NombreGrupo     string    `json:"nombre_grupo"`
	Funcion         string    `json:"funcion"`
	Anio            int       `json:"anio"`
}

// EmailTemplate is the singleton markdown template for the "ticket
// generated" email.
type EmailTemplate struct {
	Asunto    string    `json:"asunto"`
	Contenido string    `json:"contenido"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Operacion string

const (
	OperacionInsert Operacion = "INSERT"
	OperacionUpdate Operacion = "UPDATE"
	OperacionDelete Operacion = "DELETE"
)

// RegistroCambio is one append-only audit entry recording a field-level
// mutation on a core table. Entries are written in the same transaction as
// the mutation and are only ever read or bulk-deleted by age cutoff.
type RegistroCambio struct {
	ID               int64             `json:"id_historial"`
	Tabla            string            `json:"tabla"`
	IDRegistro       string            `json:"id_registro"`
	ContextoRegistro map[string]string `json:"contexto_registro"`
	Operacion        Operacion         `json:"operacion"`
	Campo            string            `json:"campo,omitempty"`
	ValorAnterior    string            `json:"valor_anterior,omitempty"`
	ValorNuevo       string            `json:"valor_nuevo,omitempty"`
	EmailUsuario     string            `json:"email_usuario,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

type Usuario struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Creado       time.Time `json:"creado"`
}
