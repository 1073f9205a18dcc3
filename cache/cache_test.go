package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/surfer/models"
)

func response(text string) models.BrowseResponse {
	res := models.NewResult("https://example.com/")
	res.Succeed(text)
	return models.BrowseResponse{Result: *res, Tokens: 1}
}

func TestKey(t *testing.T) {
	base := Key("https://example.com/", "", "text", 5000)
	assert.Equal(t, base, Key("https://example.com/", "", "text", 5000))
	assert.NotEqual(t, base, Key("https://example.com/", ".a", "text", 5000))
	assert.NotEqual(t, base, Key("https://example.com/", "", "markdown", 5000))
	assert.NotEqual(t, base, Key("https://example.com/", "", "text", 100))
	assert.NotEqual(t, base, Key("https://example.org/", "", "text", 5000))
}

func TestGetSet(t *testing.T) {
	c := New(10)
	defer c.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, hit := c.Get("k", 1000)
	assert.False(t, hit)

	c.Set("k", response("hello"))

	got, hit := c.Get("k", 1000)
	require.True(t, hit)
	require.NotNil(t, got.Text)
	assert.Equal(t, "hello", *got.Text)

	// Disabled lookups never hit.
	_, hit = c.Get("k", 0)
	assert.False(t, hit)

	// Too old for the caller's max age.
	now = now.Add(2 * time.Second)
	_, hit = c.Get("k", 1000)
	assert.False(t, hit)
	_, hit = c.Get("k", 5000)
	assert.True(t, hit)
}

func TestGetReturnsCopy(t *testing.T) {
	c := New(10)
	defer c.Close()
	c.Set("k", response("hello"))

	got, _ := c.Get("k", 1000)
	got.CacheStatus = "hit"
	got.Tokens = 99

	again, _ := c.Get("k", 1000)
	assert.Empty(t, again.CacheStatus)
	assert.Equal(t, 1, again.Tokens)
}

func TestCapacity(t *testing.T) {
	c := New(2)
	defer c.Close()

	c.Set("a", response("a"))
	c.Set("b", response("b"))
	c.Set("b", response("b2"))
	assert.Equal(t, 2, c.Len())

	c.Set("c", response("c"))
	assert.Equal(t, 2, c.Len())
	_, hit := c.Get("c", 1000)
	assert.True(t, hit)
}

func TestEvictBefore(t *testing.T) {
	c := New(10)
	defer c.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("old", response("old"))
	now = now.Add(2 * time.Hour)
	c.Set("new", response("new"))

	c.evictBefore(now.Add(-time.Hour))
	assert.Equal(t, 1, c.Len())
	_, hit := c.Get("new", int(time.Minute/time.Millisecond))
	assert.True(t, hit)
}
