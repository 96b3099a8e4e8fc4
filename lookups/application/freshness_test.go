package application

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextFreshness(t *testing.T) {
	assert.Equal(t, Fresh, nextFreshness(Stale, eventRefreshed))
	assert.Equal(t, Fresh, nextFreshness(Fresh, eventRefreshed))
	assert.Equal(t, Stale, nextFreshness(Fresh, eventExpired))
	assert.Equal(t, Stale, nextFreshness(Fresh, eventInvalidated))
	assert.Equal(t, Stale, nextFreshness(Stale, eventInvalidated))
}

func TestFreshness_MarkAndClear(t *testing.T) {
	f := NewFreshness(0)
	assert.False(t, f.IsFresh())

	f.MarkFresh()
	assert.True(t, f.IsFresh())
	assert.Equal(t, "fresh", f.State().String())

	f.Clear()
	assert.False(t, f.IsFresh())
}

func TestFreshness_ExpiresAfterWindow(t *testing.T) {
	f := NewFreshness(20 * time.Millisecond)
	defer f.Stop()

	f.MarkFresh()
	assert.True(t, f.IsFresh())
	assert.Eventually(t, func() bool { return !f.IsFresh() }, time.Second, 5*time.Millisecond)
}

func TestFreshness_ClearAfterIsCancelledByNewRefresh(t *testing.T) {
	f := NewFreshness(0)
	f.MarkFresh()

	var ran atomic.Bool
	f.ClearAfter(20*time.Millisecond, func() { ran.Store(true) })
	f.MarkFresh()

	time.Sleep(60 * time.Millisecond)
	assert.True(t, f.IsFresh())
	assert.False(t, ran.Load(), "follow-up skipped once a refresh landed")
}

func TestFreshness_ClearAfterEventuallyClears(t *testing.T) {
	f := NewFreshness(0)
	f.MarkFresh()
	staleWhenCalled := make(chan bool, 1)
	f.ClearAfter(10*time.Millisecond, func() { staleWhenCalled <- !f.IsFresh() })

	select {
	case stale := <-staleWhenCalled:
		assert.True(t, stale, "cleared before the follow-up runs")
	case <-time.After(time.Second):
		t.Fatal("follow-up never ran")
	}
}

func TestFreshness_ClearAfterWithoutDelayRunsInline(t *testing.T) {
	f := NewFreshness(0)
	f.MarkFresh()

	ran := false
	f.ClearAfter(0, func() { ran = true })

	assert.True(t, ran)
	assert.False(t, f.IsFresh())
}
