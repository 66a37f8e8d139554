package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopStoreAlwaysMisses(t *testing.T) {
	s := NewNoopStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", map[string]int{"a": 1}))
	var out map[string]int
	hit, err := s.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, s.Delete(ctx, "k"))
}

func TestTaxSummaryKey(t *testing.T) {
	assert.Equal(t, "reviewledger:tax:summary:2024", TaxSummaryKey(2024))
}

func TestRedisStoreReportsConnectionErrors(t *testing.T) {
	client := NewRedisClient("127.0.0.1:1", "", 0)
	defer client.Close()
	s := NewRedisStore(client, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var out string
	hit, err := s.Get(ctx, TaxSummaryKey(2024), &out)
	assert.False(t, hit)
	assert.Error(t, err)
	assert.NoError(t, s.Delete(ctx))
}
