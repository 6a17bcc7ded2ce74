/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

package httpserver

import "github.com/nabbar/httpcore/errors"

const (
	// ErrorInvalidState is returned when an operation requires a specific
	// supervisor state (e.g. attachObserver off STOPPED, start while STARTING).
	ErrorInvalidState errors.CodeError = iota + errors.MinPkgHttpServer
	// ErrorStartupError wraps the first observer onStart failure encountered
	// during start(); a full shutdown is run before it is returned.
	ErrorStartupError
	// ErrorShutdownError wraps the first observer onStop failure encountered
	// during stop(); the state still reaches STOPPED.
	ErrorShutdownError
	// ErrorTimeoutError is returned when stop() does not complete within
	// Options.ShutdownTimeout; shutdown keeps running in the background.
	ErrorTimeoutError
	// ErrorAcceptTransient marks an accept() call that returned no socket
	// (would-block, EINTR); the caller should re-arm the watcher and retry.
	ErrorAcceptTransient
	// ErrorTypeError marks a listener entry that is not a net.Listener. No
	// function of this package returns it: listeners are added one at a
	// time through AddListener, whose *BoundListener parameter already
	// carries a typed net.Listener.
	ErrorTypeError
)

var isCodeError = false

// IsCodeError reports whether ErrorInvalidState's code already had a
// message registered in the shared errors registry before this package's
// init registered its own (a code-range collision with another package).
func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorInvalidState)
	errors.RegisterIdFctMessage(ErrorInvalidState, getMessage)
}

func getMessage(code errors.CodeError) string {
	switch code {
	case errors.UNK_ERROR:
		return ""
	case ErrorInvalidState:
		return "operation not valid for the current supervisor state"
	case ErrorStartupError:
		return "one or more observers failed onStart"
	case ErrorShutdownError:
		return "one or more observers failed onStop"
	case ErrorTimeoutError:
		return "shutdown did not complete within the configured timeout"
	case ErrorAcceptTransient:
		return "accept returned no socket"
	case ErrorTypeError:
		return "servers entry is not a net.Listener"
	}

	return ""
}
