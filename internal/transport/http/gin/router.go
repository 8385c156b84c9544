package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	redisrepo "github.com/mpensambles/entradasqr/internal/repository/redis"
	"github.com/mpensambles/entradasqr/internal/service"
	"github.com/mpensambles/entradasqr/internal/service/accreditation"
	"github.com/mpensambles/entradasqr/internal/service/auth"
	"github.com/mpensambles/entradasqr/internal/service/mailer"
	"github.com/mpensambles/entradasqr/internal/service/roster"
	"github.com/mpensambles/entradasqr/internal/service/tickets"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/auth/login", handleLogin(svcs))

	authed := r.Group("/", AuthMiddleware(svcs.Auth))
	{
		authed.GET("/auth/session", handleSession())

		authed.GET("/tickets", handleListTickets(svcs))
		authed.POST("/tickets", handleCreateTicket(svcs))
		authed.GET("/tickets/:id", handleGetTicket(svcs))
		authed.PUT("/tickets/:id", handleUpdateTicket(svcs))
		authed.DELETE("/tickets/:id", handleDeleteTicket(svcs))
		authed.POST("/tickets/:id/redeem", handleRedeem(svcs, idem))
		authed.GET("/tickets/:id/email", handleTicketEmail(svcs))

		authed.POST("/scan", handleScan(svcs))

		authed.GET("/students", handleListStudents(svcs))
		authed.POST("/students", handleCreateStudent(svcs))
		authed.PUT("/students/:id", handleUpdateStudent(svcs))
		authed.DELETE("/students/:id", handleDeleteStudent(svcs))

		authed.GET("/groups", handleListGroups(svcs))
		authed.GET("/functions", handleListFunctions(svcs))

		authed.GET("/email-template", handleGetTemplate(svcs))
		authed.PUT("/email-template", handleUpdateTemplate(svcs))

		authed.GET("/history", handleListHistory(svcs))
		authed.GET("/history/count", handleCountHistory(svcs))
		authed.DELETE("/history", handlePurgeHistory(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Log in
// @Param    req body  LoginRequest true "payload"
// @Success  200 {object} LoginResponse
// @Failure  401 {object} ErrorResponse
// @Router   /auth/login [post]
func handleLogin(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		token, u, err := svcs.Auth.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, LoginResponse{Token: token, Email: u.Email})
	}
}

// @Summary  Current session
// @Success  200 {object} SessionResponse
// @Failure  401 {object} ErrorResponse
// @Router   /auth/session [get]
func handleSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		c.JSON(http.StatusOK, SessionResponse{Email: sess.Email})
	}
}

// @Summary  List tickets, filtered and sorted
// @Param    anio     query  int     false "year (defaults to current)"
// @Param    funcion  query  string  false "function name"
// @Param    q        query  string  false "free text over buyer/student name"
// @Param    grupo    query  string  false "group id facet"
// @Param    alumno   query  int     false "student id facet"
// @Param    filtros  query  bool    false "enable facet filters"
// @Success  200 {array} domain.VistaEntrada
// @Router   /tickets [get]
func handleListTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Tickets.List(c.Request.Context(), tickets.ListParams{
			Anio:    parseAnio(c),
			Funcion: c.Query("funcion"),
			Filtros: tickets.Filtros{
				Texto:       c.Query("q"),
				Habilitados: c.Query("filtros") == "true",
				IDGrupo:     c.Query("grupo"),
				IDAlumno:    int64(parseIntDefault(c.Query("alumno"), 0)),
			},
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=15", true)
	}
}

// @Summary  Issue a ticket
// @Param    req body  CreateTicketRequest true "payload"
// @Success  201 {object} domain.VistaEntrada
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse
// @Router   /tickets [post]
func handleCreateTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		v, err := svcs.Tickets.Issue(c.Request.Context(), tickets.IssueParams{
			NombreComprador: req.NombreComprador,
			EmailComprador:  req.EmailComprador,
			Cantidad:        req.Cantidad,
			IDAlumno:        req.IDAlumno,
			EmailUsuario:    sessionFrom(c).Email,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, v)
	}
}

// @Summary  Get ticket
// @Param    id  path  string  true  "Ticket ID (uuid)"
// @Success  200 {object} domain.VistaEntrada
// @Failure  404 {object} ErrorResponse
// @Router   /tickets/{id} [get]
func handleGetTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		v, err := svcs.Tickets.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, v, "public, max-age=15", true)
	}
}

// @Summary  Update ticket
// @Param    id  path  string  true  "Ticket ID (uuid)"
// @Param    req body  UpdateTicketRequest true "payload"
// @Success  200 {object} domain.VistaEntrada
// @Failure  404 {object} ErrorResponse
// @Router   /tickets/{id} [put]
func handleUpdateTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req UpdateTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		v, err := svcs.Tickets.Update(c.Request.Context(), tickets.UpdateParams{
			ID:              id,
			NombreComprador: req.NombreComprador,
			EmailComprador:  req.EmailComprador,
			Cantidad:        req.Cantidad,
			IDAlumno:        req.IDAlumno,
			EmailUsuario:    sessionFrom(c).Email,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// @Summary  Delete ticket
// @Param    id  path  string  true  "Ticket ID (uuid)"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /tickets/{id} [delete]
func handleDeleteTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if err := svcs.Tickets.Delete(c.Request.Context(), id, sessionFrom(c).Email); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Redeem entries (idempotent)
// @Param    id  path  string  true  "Ticket ID (uuid)"
// @Param    req body  RedeemRequest true "payload"
// @Header   200 {string} Idempotency-Key "echo"
// @Success  200 {object} accreditation.Resultado
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "idempotency key in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /tickets/{id}/redeem [post]
func handleRedeem(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req RedeemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemRedeem(id.String(), idemKey)

			if payload, ok, _ := idem.GetResult(
				c.Request.Context(),
				idemStorageKey,
			); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusOK,
					"application/json; charset=utf-8",
					[]byte(payload),
				)
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(
					c.Request.Context(),
					idemStorageKey,
				); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(
						http.StatusOK,
						"application/json; charset=utf-8",
						[]byte(payload),
					)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		rlKey := "ip:" + c.ClientIP()

		res, err := svcs.Accreditation.Acreditar(
			c.Request.Context(),
			id,
			req.Cantidad,
			sessionFrom(c).Email,
			rlKey,
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if errors.Is(err, accreditation.ErrRateLimited) {
				c.Header("Retry-After", "60")
				c.JSON(
					http.StatusTooManyRequests,
					ErrorResponse{Error: err.Error()},
				)
				return
			}
			respondErr(c, err)
			return
		}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(res)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusOK, res)
	}
}

// @Summary  Rendered confirmation email for a ticket
// @Param    id  path  string  true  "Ticket ID (uuid)"
// @Success  200 {object} mailer.RenderedEmail
// @Failure  404 {object} ErrorResponse
// @Router   /tickets/{id}/email [get]
func handleTicketEmail(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		out, err := svcs.Mailer.RenderEmail(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Resolve a scanned QR payload
// @Param    req body  ScanRequest true "payload"
// @Success  200 {object} domain.VistaEntrada
// @Failure  400 {object} ErrorResponse "malformed code"
// @Failure  404 {object} ErrorResponse
// @Router   /scan [post]
func handleScan(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		v, err := svcs.Accreditation.ResolveScan(c.Request.Context(), req.Payload)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// @Summary  List students
// @Param    anio   query  int     false "year (defaults to current)"
// @Param    grupo  query  string  false "group id"
// @Success  200 {array} domain.Alumno
// @Router   /students [get]
func handleListStudents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Roster.ListAlumnos(c.Request.Context(), parseAnio(c), c.Query("grupo"))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=60", true)
	}
}

// @Summary  Create student
// @Param    req body  StudentRequest true "payload"
// @Success  201 {object} domain.Alumno
// @Failure  400 {object} ErrorResponse
// @Router   /students [post]
func handleCreateStudent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StudentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		a, err := svcs.Roster.CreateAlumno(c.Request.Context(), roster.AlumnoParams{
			Nombre:       req.Nombre,
			IDGrupo:      req.IDGrupo,
			EmailUsuario: sessionFrom(c).Email,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, a)
	}
}

// @Summary  Update student
// @Param    id  path  int  true  "Student ID"
// @Param    req body  StudentRequest true "payload"
// @Success  200 {object} domain.Alumno
// @Failure  404 {object} ErrorResponse
// @Router   /students/{id} [put]
func handleUpdateStudent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req StudentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		a, err := svcs.Roster.UpdateAlumno(c.Request.Context(), id, roster.AlumnoParams{
			Nombre:       req.Nombre,
			IDGrupo:      req.IDGrupo,
			EmailUsuario: sessionFrom(c).Email,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

// @Summary  Delete student
// @Param    id  path  int  true  "Student ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "tickets still reference the student"
// @Router   /students/{id} [delete]
func handleDeleteStudent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Roster.DeleteAlumno(c.Request.Context(), id, sessionFrom(c).Email); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  List groups
// @Param    anio     query  int     false "year (defaults to current)"
// @Param    funcion  query  string  false "function name"
// @Success  200 {array} domain.Grupo
// @Router   /groups [get]
func handleListGroups(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Roster.ListGrupos(c.Request.Context(), parseAnio(c), c.Query("funcion"))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=60", true)
	}
}

// @Summary  List functions
// @Param    anio  query  int  false "year (defaults to current)"
// @Success  200 {array} domain.Funcion
// @Router   /functions [get]
func handleListFunctions(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Roster.ListFunciones(c.Request.Context(), parseAnio(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=60", true)
	}
}

// @Summary  Get confirmation email template
// @Success  200 {object} domain.EmailTemplate
// @Failure  404 {object} ErrorResponse
// @Router   /email-template [get]
func handleGetTemplate(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svcs.Mailer.GetTemplate(c.Request.Context(), mailer.TemplateKeyEntradaGenerada)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  Update confirmation email template
// @Param    req body  UpdateTemplateRequest true "payload"
// @Success  200 {object} domain.EmailTemplate
// @Failure  404 {object} ErrorResponse
// @Router   /email-template [put]
func handleUpdateTemplate(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateTemplateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		t, err := svcs.Mailer.UpdateTemplate(
			c.Request.Context(),
			mailer.TemplateKeyEntradaGenerada,
			mailer.UpdateTemplateParams{
				Asunto:       req.Asunto,
				Contenido:    req.Contenido,
				EmailUsuario: sessionFrom(c).Email,
			},
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  List newest audit entries
// @Param    limit  query  int  false "max entries (default 300)"
// @Success  200 {array} domain.RegistroCambio
// @Router   /history [get]
func handleListHistory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.History.List(c.Request.Context(), parseIntDefault(c.Query("limit"), 0))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Count audit entries older than a cutoff
// @Param    before  query  string  true  "cutoff (RFC3339)"
// @Success  200 {object} CountResponse
// @Router   /history/count [get]
func handleCountHistory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		cutoff, err := parseRFC3339(c.Query("before"))
		if err != nil {
			badRequest(c, "invalid before (RFC3339)")
			return
		}
		n, err := svcs.History.CountBefore(c.Request.Context(), cutoff)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, CountResponse{Count: n})
	}
}

// @Summary  Purge audit entries older than a cutoff
// @Param    before  query  string  true  "cutoff (RFC3339)"
// @Success  200 {object} PurgeResponse
// @Router   /history [delete]
func handlePurgeHistory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		cutoff, err := parseRFC3339(c.Query("before"))
		if err != nil {
			badRequest(c, "invalid before (RFC3339)")
			return
		}
		n, err := svcs.History.PurgeBefore(c.Request.Context(), cutoff)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, PurgeResponse{Deleted: n})
	}
}

// --- Helpers ---

// parseAnio reads the year query parameter, defaulting to the current year
// so every listing is explicitly year-scoped.
func parseAnio(c *gin.Context) int {
	return parseIntDefault(c.Query("anio"), time.Now().Year())
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// auth service
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		return
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid or expired token"})
		return
	// tickets service
	case errors.Is(err, tickets.ErrEntradaNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
		return
	case errors.Is(err, tickets.ErrNombreRequerido),
		errors.Is(err, tickets.ErrAlumnoRequerido),
		errors.Is(err, tickets.ErrCantidadInvalida):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, tickets.ErrEntradaConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "ticket conflict"})
		return
	// accreditation service
	case errors.Is(err, accreditation.ErrCodigoInvalido):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "scanned code is not a valid ticket id"})
		return
	case errors.Is(err, accreditation.ErrEntradaNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
		return
	case errors.Is(err, accreditation.ErrCantidadInvalida):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	// roster service
	case errors.Is(err, roster.ErrAlumnoNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "student not found"})
		return
	case errors.Is(err, roster.ErrFuncionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "function not found"})
		return
	case errors.Is(err, roster.ErrNombreRequerido),
		errors.Is(err, roster.ErrGrupoRequerido):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, roster.ErrAlumnoEnUso):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "student still referenced by tickets"})
		return
	// mailer service
	case errors.Is(err, mailer.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "template not found"})
		return
	case errors.Is(err, mailer.ErrEntradaNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
		return
	case errors.Is(err, mailer.ErrAsuntoRequerido):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
