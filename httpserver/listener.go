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

import (
	"net"

	"github.com/nabbar/httpcore/certificates"
)

// BoundListener is an already-bound, accept-capable socket, with an
// optional TLS context the supervisor may set ALPN protocols on during
// startup. The core never binds sockets itself (§1's out-of-scope list);
// callers construct BoundListener from whatever they used to open the
// socket (net.Listen, systemd socket activation, ...).
type BoundListener struct {
	// Address is a human-readable label, used only for logging.
	Address string

	// Listener is the accept-capable socket.
	Listener net.Listener

	// TLS is the optional TLS context for this listener. When present,
	// its NextProtos is overwritten with the driver factory's ALPN list
	// once the supervisor transitions to STARTED.
	TLS certificates.TLSConfig
}

func (b *BoundListener) applyALPN(serverName string, protocols []string) bool {
	if b.TLS == nil || len(protocols) == 0 {
		return false
	}

	cfg := b.TLS.TLS(serverName)
	if cfg == nil {
		return false
	}

	cfg.NextProtos = protocols
	return true
}
