package timer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_Fires(t *testing.T) {
	s := NewScheduler()
	done := make(chan string, 1)

	require.True(t, s.Schedule("fly", 5*time.Millisecond, func(tk Ticket) {
		if tk.Claim() {
			done <- tk.Key()
		}
	}))

	select {
	case key := <-done:
		assert.Equal(t, "fly", key)
	case <-time.After(time.Second):
		t.Fatal("callback did not fire")
	}
	assert.Empty(t, s.Pending())
}

func TestSchedule_ReplacesSameKey(t *testing.T) {
	s := NewScheduler()
	var fired []string
	var mu sync.Mutex
	done := make(chan struct{})

	s.Schedule("trap", 20*time.Millisecond, func(tk Ticket) {
		if tk.Claim() {
			mu.Lock()
			fired = append(fired, "first")
			mu.Unlock()
		}
	})
	s.Schedule("trap", 5*time.Millisecond, func(tk Ticket) {
		if tk.Claim() {
			mu.Lock()
			fired = append(fired, "second")
			mu.Unlock()
			close(done)
		}
	})

	<-done
	time.Sleep(40 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"second"}, fired)
}

func TestCancel(t *testing.T) {
	s := NewScheduler()
	var n int32
	s.Schedule("a", 10*time.Millisecond, func(tk Ticket) {
		if tk.Claim() {
			atomic.AddInt32(&n, 1)
		}
	})
	assert.True(t, s.Cancel("a"))
	assert.False(t, s.Cancel("a"))
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&n))
}

func TestCancelAll_InvalidatesInFlightTickets(t *testing.T) {
	s := NewScheduler()
	tickets := make(chan Ticket, 1)
	s.Schedule("block", 0, func(tk Ticket) { tickets <- tk })

	tk := <-tickets
	assert.Equal(t, []string{"block"}, s.Pending())
	assert.Equal(t, 1, s.CancelAll())
	assert.False(t, tk.Claim())
	assert.Equal(t, uint64(1), s.Epoch())
}

func TestTicket_ClaimOnce(t *testing.T) {
	s := NewScheduler()
	tickets := make(chan Ticket, 1)
	s.Schedule("k", 0, func(tk Ticket) { tickets <- tk })
	tk := <-tickets
	assert.True(t, tk.Claim())
	assert.False(t, tk.Claim())
}

func TestStop(t *testing.T) {
	s := NewScheduler()
	s.Schedule("a", time.Hour, func(Ticket) {})
	s.Stop()
	assert.Empty(t, s.Pending())
	assert.False(t, s.Schedule("b", 0, func(Ticket) {}))
}

func TestRemaining(t *testing.T) {
	s := NewScheduler()
	s.Schedule("a", time.Hour, func(Ticket) {})
	d, ok := s.Remaining("a")
	require.True(t, ok)
	assert.Greater(t, d, 59*time.Minute)
	_, ok = s.Remaining("b")
	assert.False(t, ok)
	s.Stop()
}

func TestAnimation(t *testing.T) {
	var a Animation
	assert.Equal(t, Idle, a.Phase())
	assert.False(t, a.Settle())

	require.NoError(t, a.Begin())
	assert.True(t, a.Busy())
	assert.ErrorIs(t, a.Begin(), ErrBusy)

	assert.True(t, a.Settle())
	assert.Equal(t, Settled, a.Phase())
	require.NoError(t, a.Begin())

	a.Restore(Animating)
	assert.Equal(t, Settled, a.Phase())
	a.Reset()
	assert.Equal(t, Idle, a.Phase())
}
