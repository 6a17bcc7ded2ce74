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
	"sync"
)

// Client is the server-side handle for an accepted connection: the socket
// plus the bookkeeping the supervisor needs to enforce admission control and
// idle-timeout eviction. Lifecycle: created on accept, destroyed on Close,
// which triggers registry removal exactly once.
type Client struct {
	// ID is the process-local, monotonically assigned connection-id.
	ID int64

	// Conn is the accepted socket. The driver owns its read/write pumps
	// once Close has not yet been called.
	Conn net.Conn

	// RemoteAddr is the peer address as reported by the socket.
	RemoteAddr net.Addr

	// NetworkID groups peers for per-peer admission control.
	NetworkID string

	// IsUnix marks a Unix-domain-socket peer, exempt from per-peer caps.
	IsUnix bool

	closeOnce sync.Once
	onClose   func(c *Client)
}

// Close closes the underlying socket and invokes the close callback exactly
// once, regardless of how many times Close is called.
func (c *Client) Close() error {
	var err error

	c.closeOnce.Do(func() {
		err = c.Conn.Close()
		if c.onClose != nil {
			c.onClose(c)
		}
	})

	return err
}
