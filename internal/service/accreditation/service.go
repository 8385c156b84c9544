// Package accreditation implements the redemption command: the sole writer
// of a ticket's used count.
package accreditation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mpensambles/entradasqr/internal/domain"
	"github.com/mpensambles/entradasqr/internal/repository"
	postgresrepo "github.com/mpensambles/entradasqr/internal/repository/postgres"
	redisrepo "github.com/mpensambles/entradasqr/internal/repository/redis"
	"github.com/mpensambles/entradasqr/internal/uow"
)

type Service struct {
	store   *postgresrepo.Store
	cache   *redisrepo.Cache
	pubsub  *redisrepo.EntradasPubSub
	limiter *redisrepo.SlidingWindowLimiter
	uow     *uow.UoW
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.EntradasPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
) *Service {
	return &Service{
		store:   store,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		uow:     uow.NewUoW(store),
	}
}

// Resultado is the post-redemption state of the ticket, echoed back so the
// caller can re-render without refetching.
type Resultado struct {
	Entrada     domain.VistaEntrada `json:"entrada"`
	Acreditadas int                 `json:"acreditadas"`
	Restantes   int                 `json:"restantes"`
	Estado      domain.Estado       `json:"estado"`
	Color       domain.Color        `json:"color"`
}

// Acreditar redeems cantidad entries of a ticket in one atomic increment.
// The command never checks the quantity against the remaining count: two
// concurrent redemptions that jointly overshoot both succeed, and the
// resulting state is labeled "Usada de más" rather than rejected.
//
// Returns:
//   - *Resultado: the ticket's state after the increment.
//   - error: accreditation.ErrCantidadInvalida when cantidad < 1;
//     accreditation.ErrEntradaNotFound when the ticket does not exist;
//     accreditation.ErrRateLimited when the limiter rejects rlKey.
func (s *Service) Acreditar(
	ctx context.Context,
	entradaID uuid.UUID,
	cantidad int,
	emailUsuario string,
	rlKey string,
) (*Resultado, error) {
	const op = "service.accreditation.Acreditar"

	if cantidad < 1 {
		return nil, fmt.Errorf("%s:%w", op, ErrCantidadInvalida)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s:%w: retry in %s", op, ErrRateLimited, retry)
		}
	}

	var res Resultado

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		v, err := s.store.Entradas().With(tx).GetVista(ctx, entradaID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrEntradaNotFound)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		usadas, err := s.store.Entradas().With(tx).Redeem(ctx, entradaID, cantidad)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		entry := domain.RegistroCambio{
			Tabla:      "entradas",
			IDRegistro: entradaID.String(),
			ContextoRegistro: map[string]string{
				"nombre_comprador": v.NombreComprador,
				"nombre_alumno":    v.NombreAlumno,
				"funcion":          v.Funcion,
			},
			Operacion:     domain.OperacionUpdate,
			Campo:         "usadas",
			ValorAnterior: strconv.Itoa(v.Usadas),
			ValorNuevo:    strconv.Itoa(usadas),
			EmailUsuario:  emailUsuario,
		}
		if err := s.store.Historial().With(tx).InsertBatch(ctx, []domain.RegistroCambio{entry}); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		v.Usadas = usadas
		res = Resultado{
			Entrada:     *v,
			Acreditadas: cantidad,
			Restantes:   domain.Restantes(v.Compradas, usadas),
			Estado:      domain.DarEstado(v.Compradas, usadas),
			Color:       domain.DarColorEstado(v.Compradas, usadas),
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEntrada(ctx, entradaID.String(), v.Anio)
			_ = s.pubsub.PublishEntradaChanged(ctx, entradaID.String(), v.Anio)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// ResolveScan validates a decoded QR payload and resolves it to a ticket.
// A malformed payload is rejected before any lookup with ErrCodigoInvalido,
// distinct from the well-formed-but-unknown case which is
// ErrEntradaNotFound.
func (s *Service) ResolveScan(ctx context.Context, payload string) (*domain.VistaEntrada, error) {
	const op = "service.accreditation.ResolveScan"

	payload = strings.TrimSpace(payload)

	if !domain.EsGuidValido(payload) {
		return nil, fmt.Errorf("%s:%w", op, ErrCodigoInvalido)
	}

	id, err := uuid.Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, ErrCodigoInvalido)
	}

	v, err := s.store.Entradas().GetVista(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrEntradaNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return v, nil
}
