package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dishant0406/lazyweb-backend/internal/models"
)

const DefaultRoomEventsChannel = "rooms:events"

// RoomEventPublisher announces room lifecycle changes on a Redis channel so
// other instances and consumers can follow them. Publish only enqueues; Run
// performs the network writes.
type RoomEventPublisher struct {
	rdb        *redis.Client
	channel    string
	instanceID string
	queue      chan models.RoomEvent
	log        *zap.Logger
}

func NewRoomEventPublisher(rdb *redis.Client, channel string, log *zap.Logger) *RoomEventPublisher {
	if channel == "" {
		channel = DefaultRoomEventsChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RoomEventPublisher{
		rdb:        rdb,
		channel:    channel,
		instanceID: uuid.New().String(),
		queue:      make(chan models.RoomEvent, 1024),
		log:        log,
	}
}

// GetInstanceID returns the id stamped on every event from this process.
func (p *RoomEventPublisher) GetInstanceID() string {
	return p.instanceID
}

func (p *RoomEventPublisher) Channel() string { return p.channel }

// Publish queues evt without blocking; events are dropped when the queue is full.
func (p *RoomEventPublisher) Publish(evt models.RoomEvent) {
	select {
	case p.queue <- evt:
	default:
		p.log.Warn("room event dropped, queue full",
			zap.String("type", evt.Type),
			zap.String("roomId", evt.RoomID))
	}
}

// Run drains the queue until ctx is cancelled.
func (p *RoomEventPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-p.queue:
			if err := p.send(ctx, evt); err != nil {
				p.log.Error("failed to publish room event",
					zap.String("type", evt.Type),
					zap.String("roomId", evt.RoomID),
					zap.Error(err))
			}
		}
	}
}

func (p *RoomEventPublisher) send(ctx context.Context, evt models.RoomEvent) error {
	evt.InstanceID = p.instanceID
	if evt.Timestamp == "" {
		evt.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal room event: %w", err)
	}
	return p.rdb.Publish(ctx, p.channel, data).Err()
}

// Ping verifies the Redis connection at startup.
func (p *RoomEventPublisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}
