package fastbody

import (
	"sync"
	"time"
)

func initTimer(t *time.Timer, timeout time.Duration) *time.Timer {
	if t == nil {
		return time.NewTimer(timeout)
	}
	if t.Reset(timeout) {
		panic("BUG: active timer trapped into initTimer()")
	}
	return t
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		// Collect possibly added time from the channel
		// if timer has been stopped and nobody collected its value.
		select {
		case <-t.C:
		default:
		}
	}
}

// acquireTimer returns a time.Timer from the pool updated to fire
// after at least timeout.
//
// The returned Timer may be returned to the pool with releaseTimer
// when no longer needed. This allows reducing GC load.
func acquireTimer(timeout time.Duration) *time.Timer {
	v := timerPool.Get()
	if v == nil {
		return time.NewTimer(timeout)
	}
	t := v.(*time.Timer)
	initTimer(t, timeout)
	return t
}

// releaseTimer returns the timer acquired via acquireTimer to the pool
// and prevents it from firing.
//
// Do not access the released timer or read from its channel, otherwise
// data races and/or panics may occur.
func releaseTimer(t *time.Timer) {
	stopTimer(t)
	timerPool.Put(t)
}

var timerPool sync.Pool
