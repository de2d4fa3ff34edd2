package nonce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSource_SeedsFromClock(t *testing.T) {
	source := NewWithClock(func() time.Time { return time.Unix(1520000000, 0) })

	assert.Equal(t, int64(1520000000), source.Next())
}

func TestSource_StrictlyIncreasing(t *testing.T) {
	source := New()

	prev := source.Next()
	for i := 0; i < 1000; i++ {
		next := source.Next()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestSource_StalledClockStillAdvances(t *testing.T) {
	frozen := time.Unix(1520000000, 0)
	source := NewWithClock(func() time.Time { return frozen })

	assert.Equal(t, int64(1520000000), source.Next())
	assert.Equal(t, int64(1520000001), source.Next())
	assert.Equal(t, int64(1520000002), source.Next())
}

func TestSource_BackwardClockStepIgnored(t *testing.T) {
	current := time.Unix(1520000100, 0)
	source := NewWithClock(func() time.Time { return current })

	first := source.Next()
	current = time.Unix(1520000000, 0)

	assert.Greater(t, source.Next(), first)
}

func TestSource_ConcurrentUnique(t *testing.T) {
	source := New()

	const workers = 50
	const perWorker = 100

	var wg sync.WaitGroup
	results := make(chan int64, workers*perWorker)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				results <- source.Next()
			}
		}()
	}

	wg.Wait()
	close(results)

	seen := make(map[int64]struct{}, workers*perWorker)
	for n := range results {
		_, dup := seen[n]
		assert.False(t, dup, "nonce %d issued twice", n)
		seen[n] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
}
