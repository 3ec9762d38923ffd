package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/foodmes-backend/internal/platform/logger"
)

const (
	EventBatchReleased = "batch.released"
	EventBatchRejected = "batch.rejected"
	EventNCOpened      = "nonconformity.opened"
)

// QualityEvent is the payload pushed to the production side whenever a
// quality decision changes a batch's standing, so the MES can react
// (e.g. move a batch to retained).
type QualityEvent struct {
	Event             string     `json:"event"`
	OrganizationID    uuid.UUID  `json:"organization_id"`
	ProductionBatchID *uuid.UUID `json:"production_batch_id,omitempty"`
	EntityID          uuid.UUID  `json:"entity_id"`
	ActorID           uuid.UUID  `json:"actor_id"`
	Detail            string     `json:"detail,omitempty"`
	OccurredAt        time.Time  `json:"occurred_at"`
}

// Publisher pushes quality events to interested consumers. Publish
// failures never abort the quality decision itself.
type Publisher interface {
	Publish(ctx context.Context, ev QualityEvent)
	Close() error
}

type redisPublisher struct {
	log     *logger.Logger
	client  *redis.Client
	channel string
}

func NewRedisPublisher(log *logger.Logger, addr, channel string) Publisher {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &redisPublisher{
		log:     log.With("service", "QualityEventBus"),
		client:  client,
		channel: channel,
	}
}

func (p *redisPublisher) Publish(ctx context.Context, ev QualityEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("marshal quality event", "event", ev.Event, "error", err)
		return
	}
	if err := p.client.Publish(ctx, p.channel, raw).Err(); err != nil {
		p.log.Error("publish quality event", "event", ev.Event, "error", err)
	}
}

func (p *redisPublisher) Close() error { return p.client.Close() }

// NewNopPublisher swallows events. Used in tests and when redis is not
// configured.
func NewNopPublisher() Publisher { return nopPublisher{} }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, QualityEvent) {}
func (nopPublisher) Close() error                          { return nil }
