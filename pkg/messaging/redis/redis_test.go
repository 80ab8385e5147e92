package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/pkg/logger"
)

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestPublishOpensBreaker(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	b := newBroker(client, Config{BreakerFailures: 2, BreakerTimeout: time.Minute}, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := b.Publish(ctx, "booking.events", map[string]string{"type": "PING"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}

	err := b.Publish(ctx, "booking.events", map[string]string{"type": "PING"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, gobreaker.StateOpen, b.cb.State())
}

func TestPublishRejectsUnmarshalable(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	b := newBroker(client, Config{}, logger.Nop())
	err := b.Publish(context.Background(), "booking.events", make(chan int))
	assert.ErrorContains(t, err, "failed to marshal message")
	assert.Equal(t, gobreaker.StateClosed, b.cb.State())
}

func TestNewRedisBrokerInvalidURL(t *testing.T) {
	_, err := NewRedisBroker(Config{URL: "not-a-url"}, logger.Nop())
	assert.ErrorContains(t, err, "failed to parse Redis URL")
}
