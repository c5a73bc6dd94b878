package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dishant0406/lazyweb-backend/internal/models"
)

func setupPublisher(t *testing.T, channel string) (*RoomEventPublisher, *redis.Client) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRoomEventPublisher(rdb, channel, nil), rdb
}

func TestRoomEventPublisherDefaults(t *testing.T) {
	publisher, _ := setupPublisher(t, "")
	assert.Equal(t, DefaultRoomEventsChannel, publisher.Channel())
	assert.NotEmpty(t, publisher.GetInstanceID())
	require.NoError(t, publisher.Ping(context.Background()))
}

func TestRoomEventPublisherDeliversEvents(t *testing.T) {
	publisher, rdb := setupPublisher(t, "rooms:test")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := rdb.Subscribe(ctx, "rooms:test")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	go publisher.Run(ctx)
	publisher.Publish(models.RoomEvent{
		Type:         models.RoomEventCreated,
		RoomID:       "abc123",
		ConnectionID: "conn-1",
		MemberCount:  1,
	})

	select {
	case msg := <-sub.Channel():
		var evt models.RoomEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &evt))
		assert.Equal(t, models.RoomEventCreated, evt.Type)
		assert.Equal(t, "abc123", evt.RoomID)
		assert.Equal(t, 1, evt.MemberCount)
		assert.Equal(t, publisher.GetInstanceID(), evt.InstanceID)
		_, err := time.Parse(time.RFC3339, evt.Timestamp)
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for room event")
	}
}

func TestRoomEventPublisherDropsWhenQueueFull(t *testing.T) {
	publisher, _ := setupPublisher(t, "rooms:test")
	publisher.queue = make(chan models.RoomEvent, 1)

	publisher.Publish(models.RoomEvent{Type: models.RoomEventCreated, RoomID: "a"})
	publisher.Publish(models.RoomEvent{Type: models.RoomEventCreated, RoomID: "b"})

	require.Len(t, publisher.queue, 1)
	evt := <-publisher.queue
	assert.Equal(t, "a", evt.RoomID)
}

func TestRoomEventPublisherRunStopsOnCancel(t *testing.T) {
	publisher, _ := setupPublisher(t, "rooms:test")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		publisher.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
