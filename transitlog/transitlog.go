// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transitlog holds the process-wide verbosity level and suppressed-
// warning counter described in the design's "global mutable state" note,
// mirroring the single explicitly-initialized module-level value with a
// teardown hook that the teacher applies to its own verbose/log-file state
// (gofem/main.go toggles chk.Verbose and flushes fem.End() at exit). Reset
// is also used between tests and before cloning state into per-worker
// copies for the §5 parallel wavenumber fan-out.
package transitlog

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Level mirrors the CLI's verbosity knob.
type Level int

const (
	Quiet Level = iota
	Normal
	Verbose
)

var (
	mu       sync.Mutex
	level    = Normal
	suppress int32 // count of every warning emitted since the last Reset; no warning is suppressed
	logger   = logrus.StandardLogger()
)

// SetLevel sets the process-wide verbosity.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
	switch l {
	case Quiet:
		logger.SetLevel(logrus.ErrorLevel)
	case Normal:
		logger.SetLevel(logrus.WarnLevel)
	case Verbose:
		logger.SetLevel(logrus.InfoLevel)
	}
}

// CurrentLevel returns the process-wide verbosity.
func CurrentLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return level
}

// Warn emits a warning and increments the warning counter; it is the single
// point every component in §4 routes warnings through, so WarnCount gives
// the aggregate count. Each call still logs its own line.
func Warn(format string, args ...interface{}) {
	atomic.AddInt32(&suppress, 1)
	logger.Warnf(format, args...)
}

// Info emits an informational message at Verbose level only.
func Info(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// WarnCount returns the number of warnings emitted since the last Reset.
func WarnCount() int {
	return int(atomic.LoadInt32(&suppress))
}

// Reset clears the warning counter and restores Normal verbosity; called at
// the start of each CLI run and by tests that assert on warning counts.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	level = Normal
	atomic.StoreInt32(&suppress, 0)
	logger.SetLevel(logrus.WarnLevel)
}

// Clone returns an independent logger state for a worker goroutine in the
// §5 wavenumber fan-out; workers must not share the package-level counter.
type Clone struct {
	Suppressed int32
}

// NewClone starts a fresh per-worker warning counter.
func NewClone() *Clone { return &Clone{} }

// Warn increments the clone's own counter and emits through the shared
// logger (logging itself is safe for concurrent use; only the counter needs
// to be per-worker to avoid contention on the shared atomic).
func (c *Clone) Warn(format string, args ...interface{}) {
	c.Suppressed++
	logger.Warnf(format, args...)
}

// Merge folds a clone's count back into the process-wide counter after a
// parallel fan-out completes.
func (c *Clone) Merge() {
	atomic.AddInt32(&suppress, c.Suppressed)
}
