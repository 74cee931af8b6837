package game

import "time"

type timerScheduler struct{}

// NewTimerScheduler returns the real Scheduler, backed by time.AfterFunc.
// Tests substitute a manual implementation so delayed work runs without
// real waiting.
func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}

func (timerScheduler) Schedule(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}
