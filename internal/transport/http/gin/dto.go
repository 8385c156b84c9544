package httpgin

import "time"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

type SessionResponse struct {
	Email string `json:"email"`
}

type CreateTicketRequest struct {
	NombreComprador string `json:"nombre_comprador" binding:"required"`
	EmailComprador  string `json:"email_comprador" binding:"omitempty,email"`
	Cantidad        int    `json:"cantidad" binding:"required,gte=1"`
	IDAlumno        int64  `json:"id_alumno" binding:"required,gt=0"`
}

type UpdateTicketRequest struct {
	NombreComprador string `json:"nombre_comprador" binding:"required"`
	EmailComprador  string `json:"email_comprador" binding:"omitempty,email"`
	Cantidad        int    `json:"cantidad" binding:"required,gte=1"`
	IDAlumno        int64  `json:"id_alumno" binding:"required,gt=0"`
}

type RedeemRequest struct {
	Cantidad int `json:"cantidad" binding:"required,gte=1"`
}

type ScanRequest struct {
	Payload string `json:"payload" binding:"required"`
}

type StudentRequest struct {
	Nombre  string `json:"nombre" binding:"required"`
	IDGrupo string `json:"id_grupo" binding:"required"`
}

type UpdateTemplateRequest struct {
	Asunto    string `json:"asunto" binding:"required"`
	Contenido string `json:"contenido" binding:"required"`
}

type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
