/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package startStop provides a small generic primitive for running a single
// asynchronous task that has a distinct start phase and stop phase, with
// uptime and error tracking. It drives the httpserver TimeReference tick and
// is independently reusable for any start/stop pair.
package startStop

import (
	"context"
	"time"
)

// FuncStartStop is the shape of both the start and the stop function. The
// start function is expected to block until its context is cancelled; the
// stop function performs whatever graceful teardown is needed and should
// return promptly.
type FuncStartStop func(ctx context.Context) error

// StartStop runs one instance of a start function at a time. Calling Start
// while already running stops the previous instance first. Stop is
// idempotent. All methods are safe for concurrent use.
type StartStop interface {
	// Start launches the start function in a new goroutine and returns
	// immediately; it never returns the start function's error directly,
	// that error (or a nil-function placeholder error) is captured and
	// retrievable through ErrorsLast/ErrorsList.
	Start(ctx context.Context) error

	// Stop cancels the running instance's context and invokes the stop
	// function. It returns once the stop function has returned and the
	// start function has exited; the stop function's error is captured
	// the same way as the start function's. Calling Stop when
	// not running is a safe no-op.
	Stop(ctx context.Context) error

	// Restart stops any running instance and starts a new one.
	Restart(ctx context.Context) error

	// IsRunning reports whether a start instance is currently active.
	IsRunning() bool

	// Uptime returns the duration since the current instance started, or
	// zero if not running.
	Uptime() time.Duration

	// ErrorsLast returns the most recently captured error, or nil.
	ErrorsLast() error

	// ErrorsList returns every error captured since the last Start call.
	ErrorsList() []error
}

// New builds a StartStop runner around the given start and stop functions.
// Either may be nil; invoking a nil function produces a captured error
// rather than a panic.
func New(start, stop FuncStartStop) StartStop {
	return &runner{
		fnStart: start,
		fnStop:  stop,
	}
}
