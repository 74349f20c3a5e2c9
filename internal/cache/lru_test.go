package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_GetPut(t *testing.T) {
	c := New[string](2, 0)
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", "1")
	c.Put("b", "2")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	c.Put("a", "3")
	v, _ = c.Get("a")
	assert.Equal(t, "3", v)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_EvictsLeastRecent(t *testing.T) {
	c := New[int](2, 0)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // b is now least recent
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRU_TTL(t *testing.T) {
	now := time.Unix(1000, 0)
	c := New[int](4, 30*time.Second)
	c.now = func() time.Time { return now }

	c.Put("a", 1)
	now = now.Add(29 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRU_Purge(t *testing.T) {
	c := New[int](4, 0)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Purge()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("c", 3)
	v, ok := c.Get("c")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestLRU_GetOrLoad(t *testing.T) {
	c := New[string](4, 0)
	calls := 0
	load := func() (string, error) {
		calls++
		return "v", nil
	}

	v, err := c.GetOrLoad("k", load)
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	_, _ = c.GetOrLoad("k", load)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err = c.GetOrLoad("bad", func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	_, ok := c.Get("bad")
	assert.False(t, ok, "failed loads are not cached")
}

func TestLRU_MinimumCapacity(t *testing.T) {
	c := New[int](0, 0)
	c.Put("a", 1)
	c.Put("b", 2)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_Concurrent(t *testing.T) {
	c := New[int](16, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				k := fmt.Sprint(j % 32)
				c.Put(k, j)
				c.Get(k)
				if j%100 == 0 {
					c.Purge()
				}
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}
