package service

import (
	postgres "github.com/mpensambles/entradasqr/internal/repository/postgres"
	redis "github.com/mpensambles/entradasqr/internal/repository/redis"
	"github.com/mpensambles/entradasqr/internal/service/accreditation"
	"github.com/mpensambles/entradasqr/internal/service/auth"
	"github.com/mpensambles/entradasqr/internal/service/history"
	"github.com/mpensambles/entradasqr/internal/service/mailer"
	"github.com/mpensambles/entradasqr/internal/service/roster"
	"github.com/mpensambles/entradasqr/internal/service/tickets"
)

type Services struct {
	Tickets       *tickets.Service
	Accreditation *accreditation.Service
	Roster        *roster.Service
	Mailer        *mailer.Service
	History       *history.Service
	Auth          *auth.Service
}

type Config struct {
	Tickets tickets.Config
	Roster  roster.Config
	Mailer  mailer.Config
	Auth    auth.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redis.EntradasPubSub,
	limiter *redis.SlidingWindowLimiter,
	cfg Config,
) *Services {
	return &Services{
		Tickets:       tickets.New(store, cache, pubsub, cfg.Tickets),
		Accreditation: accreditation.New(store, cache, pubsub, limiter),
		Roster:        roster.New(store, cache, cfg.Roster),
		Mailer:        mailer.New(store, cache, cfg.Mailer),
		History:       history.New(store),
		Auth:          auth.New(store, cfg.Auth),
	}
}
