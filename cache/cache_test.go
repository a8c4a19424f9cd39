package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_OneFetchWithinTTL(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	c := NewWithClock(clock)

	fetches := 0
	fetch := func() (any, error) {
		fetches++
		return 14_230_000, nil
	}

	v1, err := c.Get("freq:A", time.Second, fetch)
	require.NoError(t, err)
	v2, err := c.Get("freq:A", time.Second, fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, fetches)
	assert.Equal(t, v1, v2)
}

func TestGet_RefetchesAfterTTLExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	c := NewWithClock(clock)

	fetches := 0
	fetch := func() (any, error) {
		fetches++
		return fetches, nil
	}

	_, err := c.Get("freq:A", time.Second, fetch)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	v, err := c.Get("freq:A", time.Second, fetch)
	require.NoError(t, err)

	assert.Equal(t, 2, fetches)
	assert.Equal(t, 2, v)
}

func TestGet_ZeroMaxAgeAlwaysFetches(t *testing.T) {
	c := New()
	fetches := 0
	fetch := func() (any, error) {
		fetches++
		return fetches, nil
	}
	_, _ = c.Get("k", 0, fetch)
	_, _ = c.Get("k", 0, fetch)
	assert.Equal(t, 2, fetches)
}

func TestGet_FetchErrorNotCached(t *testing.T) {
	c := New()
	_, err := c.Get("k", time.Second, func() (any, error) {
		return nil, fmt.Errorf("wire failure")
	})
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	c := New()
	fetches := 0
	fetch := func() (any, error) {
		fetches++
		return fetches, nil
	}
	_, _ = c.Get("k", time.Hour, fetch)
	c.Invalidate("k")
	_, _ = c.Get("k", time.Hour, fetch)
	assert.Equal(t, 2, fetches)
}

func TestInvalidateAll_ClearsEverything(t *testing.T) {
	c := New()
	c.Put("a", 1)
	c.Put("b", 2)
	require.Equal(t, 2, c.Len())
	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
}

func TestPut_SeedsEntryWithoutFetch(t *testing.T) {
	c := New()
	c.Put("freq:A", 14_230_000)
	fetches := 0
	v, err := c.Get("freq:A", time.Hour, func() (any, error) {
		fetches++
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, fetches)
	assert.Equal(t, 14_230_000, v)
}
