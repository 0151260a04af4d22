// Package monitoring forwards errors and panics to the configured error
// tracker. It defaults to a no-op monitor.
package monitoring

import (
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	CapturePanic(v any)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CapturePanic(any)                          {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	get().CaptureException(err, tags)
}

// Guard runs fn and reports a panic before re-raising it.
func Guard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m := get()
			m.CapturePanic(r)
			m.Flush(2 * time.Second)
			panic(r)
		}
	}()
	fn()
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	get().Flush(d)
}
