package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldista/internal/models"
)

func newTestCache(ttl time.Duration) *MarketCache {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewMarketCache(ttl, logger)
}

func summary(avg int) *models.MarketSummary {
	return &models.MarketSummary{AveragePrice: avg, MinPrice: avg - 100, MaxPrice: avg + 100, SampleSize: 5}
}

func TestMarketCache_SetGet(t *testing.T) {
	c := newTestCache(time.Minute)

	c.Set("k", summary(800), 0)
	got := c.Get("k")
	require.NotNil(t, got)
	assert.Equal(t, 800, got.AveragePrice)

	assert.Nil(t, c.Get("missing"))
}

func TestMarketCache_NeverServesPastTTL(t *testing.T) {
	c := newTestCache(time.Minute)

	clock := time.Now()
	c.now = func() time.Time { return clock }

	c.Set("k", summary(800), 100*time.Millisecond)

	clock = clock.Add(50 * time.Millisecond)
	assert.NotNil(t, c.Get("k"), "entry inside TTL must be served")

	clock = clock.Add(100 * time.Millisecond)
	assert.Nil(t, c.Get("k"), "entry past TTL must be a miss")
	assert.Equal(t, 0, c.Len(), "expired entry is removed on read")
}

func TestMarketCache_RoundTripPreservesValue(t *testing.T) {
	c := newTestCache(time.Minute)

	original := &models.MarketSummary{
		AveragePrice: 850,
		MinPrice:     600,
		MaxPrice:     1200,
		SampleSize:   12,
		Properties:   []models.Property{{ID: "1", Price: 600}, {ID: "2", Price: 1200}},
	}
	c.Set("k", original, 0)

	got := c.Get("k")
	require.NotNil(t, got)
	assert.Equal(t, original, got)
}

func TestMarketCache_SweepExpired(t *testing.T) {
	c := newTestCache(time.Minute)

	clock := time.Now()
	c.now = func() time.Time { return clock }

	c.Set("fresh", summary(700), time.Hour)
	c.Set("stale1", summary(800), time.Millisecond)
	c.Set("stale2", summary(900), time.Millisecond)

	clock = clock.Add(time.Second)
	assert.Equal(t, 2, c.SweepExpired())
	assert.Equal(t, 1, c.Len())
	assert.NotNil(t, c.Get("fresh"))
}

func TestMarketCache_Clear(t *testing.T) {
	c := newTestCache(time.Minute)
	c.Set("a", summary(700), 0)
	c.Set("b", summary(800), 0)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Get("a"))
}

func TestMarketCache_ConcurrentAccess(t *testing.T) {
	c := newTestCache(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Set("shared", summary(800), 0)
			c.Get("shared")
			c.SweepExpired()
		}()
	}
	wg.Wait()

	assert.NotNil(t, c.Get("shared"))
}

func intPtr(v int) *int { return &v }

func TestBuildKey_BucketsSimilarProperties(t *testing.T) {
	a := &models.Property{ID: "1", Rooms: intPtr(3), Size: intPtr(70)}
	b := &models.Property{ID: "2", Rooms: intPtr(3), Size: intPtr(75)}
	c := &models.Property{ID: "3", Rooms: intPtr(1), Size: intPtr(40)}

	url := "https://www.idealista.com/alquiler-viviendas/madrid/?habitaciones=3&superficie=50-90"

	keyA := BuildKey(url, a)
	keyB := BuildKey(url, b)
	keyC := BuildKey(url, c)

	assert.Equal(t, keyA, keyB, "same buckets share a key")
	assert.NotEqual(t, keyA, keyC, "different buckets get distinct keys")
	assert.Contains(t, keyA, "rooms_group=3")
	assert.Contains(t, keyA, "size_group=medium")
	assert.Contains(t, keyC, "size_group=small")
}

func TestBuildKey_MalformedURLFallsBack(t *testing.T) {
	raw := "://bad-url"
	assert.Equal(t, raw, BuildKey(raw, &models.Property{ID: "1"}))
}
