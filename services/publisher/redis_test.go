package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mzohaib/bankdealworker/internal/deal"
)

// This test requires a running Redis instance and is skipped otherwise.
func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	pub := NewRedisPublisher(ctx, "localhost:6379", 0, "test_bankdeals", 1, 100)
	defer pub.Close()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()

	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	err := client.XGroupCreateMkStream(ctx, "test_bankdeals:0", "test_group", "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		require.NoError(t, err)
	}

	messages := make(chan map[string]interface{}, 1)
	go func() {
		streams, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Streams:  []string{"test_bankdeals:0", ">"},
			Group:    "test_group",
			Consumer: "test_consumer",
			Block:    0,
		}).Result()
		assert.NoError(t, err)
		messages <- streams[0].Messages[0].Values
	}()

	time.Sleep(100 * time.Millisecond)

	offers := []deal.Offer{{Merchant: "Broadway Pizza", Bank: "HBL", DiscountPercent: 25}}
	require.NoError(t, pub.PublishOffers("HBL", offers))

	select {
	case values := <-messages:
		assert.Equal(t, "HBL", values["bank"])

		decoded, err := base64.StdEncoding.DecodeString(values["b64_offers"].(string))
		require.NoError(t, err)
		var published []deal.Offer
		require.NoError(t, json.Unmarshal(decoded, &published))
		require.Len(t, published, 1)
		assert.Equal(t, "Broadway Pizza", published[0].Merchant)
	case <-time.After(1 * time.Second):
		t.Error("Timed out waiting for message")
	}
}

func TestPublishOffersSkipsEmptyBatch(t *testing.T) {
	// No Redis round trip happens for an empty batch, so this passes without
	// a server.
	pub := NewRedisPublisher(context.Background(), "localhost:6379", 0, "test_bankdeals", 1, 100)
	defer pub.Close()
	assert.NoError(t, pub.PublishOffers("HBL", nil))
}
