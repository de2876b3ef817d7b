package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/gdl90-server/internal/config"
)

// testClient 连接 REDIS_ADDR（默认 localhost:6379），不可达时跳过
func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	c, err := NewClient(context.Background(), cfgpkg.RedisConfig{
		Enabled:     true,
		Addr:        addr,
		DB:          15,
		DialTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClient_Disabled(t *testing.T) {
	c, err := NewClient(context.Background(), cfgpkg.RedisConfig{Enabled: false})
	assert.Nil(t, c)
	assert.True(t, errors.Is(err, ErrDisabled))
}

func TestOptions(t *testing.T) {
	o := Options(cfgpkg.RedisConfig{Addr: "r:6379", DB: 2, PoolSize: 5})
	assert.Equal(t, "r:6379", o.Addr)
	assert.Equal(t, 2, o.DB)
	assert.Equal(t, 5, o.PoolSize)
}

func TestClient_PublishSubscribe(t *testing.T) {
	c := testClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	sub := c.Subscribe(ctx, "/gdl90/test")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	n, err := c.Publish(ctx, "/gdl90/test", []byte(`{"icao_hex":"ab4549"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"icao_hex":"ab4549"}`, msg.Payload)

	require.NoError(t, c.HealthCheck(ctx))
	assert.NotNil(t, c.Stats())
}
