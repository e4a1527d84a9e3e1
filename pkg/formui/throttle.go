package formui

import "time"

// DefaultThrottle is the answer debounce interval.
const DefaultThrottle = 500 * time.Millisecond

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Scheduler creates the timers behind answer debouncing.
// Implementations must never run f synchronously from AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler returns the Scheduler backed by time.AfterFunc.
func RealScheduler() Scheduler {
	return realScheduler{}
}
