package redis

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillchain/internal/platform/config"
)

func TestNewWithoutURL(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewRejectsMalformedURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "http://not-redis"}, nil)
	require.ErrorContains(t, err, "parse redis URL")
}

func TestRecordPoolStats(t *testing.T) {
	metrics := NewPoolMetrics(prometheus.NewRegistry())
	raw := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	defer raw.Close()
	c := &Client{Client: raw, metrics: metrics}

	assert.NotPanics(t, func() {
		c.RecordPoolStats()
		c.RecordPoolStats()
	})
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.totalConns))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.hits))
}

func TestRecordPoolStatsWithoutMetrics(t *testing.T) {
	raw := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	defer raw.Close()

	assert.NotPanics(t, (&Client{Client: raw}).RecordPoolStats)
}
