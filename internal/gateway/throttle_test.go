package gateway

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottleCoalescesBurst(t *testing.T) {
	th := newThrottle(50 * time.Millisecond)

	var runs int32
	var mu sync.Mutex
	var last string

	for i := 0; i < 50; i++ {
		content := fmt.Sprintf("buffer-%d", i)
		th.Do(func() {
			atomic.AddInt32(&runs, 1)
			mu.Lock()
			last = content
			mu.Unlock()
		})
	}

	eventually(t, time.Second, func() bool {
		return atomic.LoadInt32(&runs) == 1
	}, "burst should collapse to one execution")

	// No trailing second execution.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "buffer-49", last, "latest call wins")
}

func TestThrottleSeparateWindows(t *testing.T) {
	th := newThrottle(20 * time.Millisecond)

	var runs int32
	th.Do(func() { atomic.AddInt32(&runs, 1) })

	eventually(t, time.Second, func() bool {
		return atomic.LoadInt32(&runs) == 1
	}, "first window should fire")

	th.Do(func() { atomic.AddInt32(&runs, 1) })

	eventually(t, time.Second, func() bool {
		return atomic.LoadInt32(&runs) == 2
	}, "a call after the window should fire again")
}

func TestThrottleFlush(t *testing.T) {
	th := newThrottle(time.Hour)

	var runs int32
	th.Do(func() { atomic.AddInt32(&runs, 1) })

	th.Flush()
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs), "flush runs pending work immediately")

	th.Flush()
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs), "flush without pending work is a no-op")
}

func TestThrottleStoreEvictsIdle(t *testing.T) {
	s := newThrottleStore(time.Millisecond, time.Hour)
	defer s.Close()

	s.Get("iv-1")
	s.Get("iv-2")
	assert.Equal(t, 2, s.Len())

	// Same id returns the same entry.
	a := s.Get("iv-1")
	b := s.Get("iv-1")
	assert.Same(t, a, b)

	time.Sleep(20 * time.Millisecond)
	s.evictIdle(time.Now())
	assert.Equal(t, 0, s.Len(), "idle entries past the cutoff are evicted")
}

func TestThrottleStoreCloseFlushes(t *testing.T) {
	s := newThrottleStore(time.Hour, time.Hour)

	var runs int32
	s.Get("iv-1").Do(func() { atomic.AddInt32(&runs, 1) })

	s.Close()
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs), "close must not drop the buffered write")
}
