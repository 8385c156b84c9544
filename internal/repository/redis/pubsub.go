package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// EntradasPubSub is the change feed other clients subscribe to so their
// cached ticket views refresh after a mutation elsewhere.
type EntradasPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewEntradasPubSub(rdb *redis.Client) *EntradasPubSub {
	return &EntradasPubSub{
		rdb:     rdb,
		channel: ChannelEntradasChanged(),
	}
}

type entradaChangedMsg struct {
	Type      string `json:"type"`
	EntradaID string `json:"entrada_id"`
	Anio      int    `json:"anio"`
	TsUnix    int64  `json:"ts_unix"`
}

func (p *EntradasPubSub) PublishEntradaChanged(ctx context.Context, entradaID string, anio int) error {
	msg := entradaChangedMsg{
		Type:      "entrada_changed",
		EntradaID: entradaID,
		Anio:      anio,
		TsUnix:    time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *EntradasPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, entradaID string, anio int)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev entradaChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.EntradaID != "" {
				handler(ctx, ev.EntradaID, ev.Anio)
			}
		}
	}
}
