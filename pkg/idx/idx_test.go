package idx

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := New()
	b := New()

	assert.Len(t, a.String(), 26)
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsZero())
}

func TestIDsSortByCreationTime(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Second)

	early := NewAt(t1)
	late := NewAt(t2)

	ids := []string{late.String(), early.String()}
	sort.Strings(ids)
	assert.Equal(t, early.String(), ids[0])

	assert.Equal(t, t1, early.Time())
}

func TestParse(t *testing.T) {
	id := New()

	parsed, err := Parse("  " + id.String() + "  ")
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	for _, bad := range []string{"", "not-a-ulid", "0"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalid, "input %q", bad)
	}

	assert.Panics(t, func() { MustParse("nope") })
}

func TestConcurrentGeneration(t *testing.T) {
	const n = 200

	var (
		mu  sync.Mutex
		ids = make(map[ID]bool, n)
		wg  sync.WaitGroup
	)

	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := New()
			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, n, "no duplicates under concurrency")
}

func TestZeroTime(t *testing.T) {
	assert.True(t, Zero.Time().IsZero())
	assert.True(t, ID("garbage").Time().IsZero())
}
