package runtime

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDedupSet_MarkOnce(t *testing.T) {
	req := require.New(t)
	dedup := NewDedupSet()
	at := time.Now()

	req.True(dedup.MarkOnce("a1", at))
	req.False(dedup.MarkOnce("a1", at))
	req.True(dedup.Contains("a1"))
	req.False(dedup.Contains("a2"))
	req.Equal(1, dedup.Len())
}

func TestDedupSet_MarkOnce_Concurrent(t *testing.T) {
	req := require.New(t)
	dedup := NewDedupSet()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if dedup.MarkOnce("a1", time.Now()) {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	req.Equal(int32(1), winners.Load())
}

func TestDedupSet_Evict(t *testing.T) {
	req := require.New(t)
	dedup := NewDedupSet()
	now := time.Now()

	dedup.MarkOnce("past", now.Add(-time.Minute))
	dedup.MarkOnce("future", now.Add(time.Minute))

	req.Equal(1, dedup.Evict(now))
	req.False(dedup.Contains("past"))
	req.True(dedup.Contains("future"))
}
