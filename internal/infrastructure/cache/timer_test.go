package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerStore(t *testing.T) {
	t.Run("put get delete", func(t *testing.T) {
		ts := NewTimerStore()
		timer := time.NewTimer(time.Hour)
		defer timer.Stop()

		ts.Put("tmr:req-1", timer, time.Hour)

		got, ok := ts.Get("tmr:req-1")
		require.True(t, ok)
		assert.Same(t, timer, got)
		assert.Equal(t, 1, ts.Len())

		ts.Delete("tmr:req-1")
		_, ok = ts.Get("tmr:req-1")
		assert.False(t, ok)
	})

	t.Run("delete absent key is a no-op", func(t *testing.T) {
		ts := NewTimerStore()
		ts.Delete("tmr:never")
		assert.Equal(t, 0, ts.Len())
	})

	t.Run("entry expires with its ttl", func(t *testing.T) {
		ts := NewTimerStore()
		timer := time.NewTimer(time.Hour)
		defer timer.Stop()

		ts.Put("tmr:req-2", timer, 10*time.Millisecond)
		time.Sleep(30 * time.Millisecond)

		_, ok := ts.Get("tmr:req-2")
		assert.False(t, ok, "stale handle must not outlive its deadline")
	})
}
