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
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/net/http2"

	"github.com/nabbar/httpcore/httpserver/types"
)

// Responder handles a fully-parsed request and produces a response. The
// driver is the only caller; the supervisor only ever holds the reference.
type Responder interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// ErrorHandler renders an error page for a failure the driver could not
// route to the responder (bad request line, handshake failure, ...).
type ErrorHandler interface {
	HandleError(w http.ResponseWriter, r *http.Request, status int, reason error)
}

// Driver is the per-connection HTTP protocol state machine handed an
// admitted Client by the Acceptor. Serve blocks until the connection is
// closed, by either peer or supervisor.
type Driver interface {
	Serve(ctx context.Context, c *Client)
}

// HttpDriverFactory produces a Driver for each admitted Client and
// advertises the ALPN protocol list the supervisor should set on bound TLS
// listeners once started.
type HttpDriverFactory interface {
	GetApplicationLayerProtocols() []string
	CreateDriver(c *Client) Driver
}

// defaultErrorHandler renders a minimal text error page. The no-responder
// case delegates to the teacher's BadHandler (httpserver/types/handler.go)
// rather than reimplementing its 500-with-no-body behavior.
type defaultErrorHandler struct{}

func newDefaultErrorHandler() ErrorHandler {
	return &defaultErrorHandler{}
}

func (defaultErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, status int, reason error) {
	if reason == errNoResponder {
		types.NewBadHandler().ServeHTTP(w, r)
		return
	}

	if status <= 0 {
		status = http.StatusInternalServerError
	}

	msg := http.StatusText(status)
	if reason != nil {
		msg = reason.Error()
	}

	http.Error(w, msg, status)
}

// httpDriverFactory is the default HttpDriverFactory: a single shared,
// tuned *http.Server (HTTP/1.x fields plus golang.org/x/net/http2 settings,
// grounded on the teacher's Listen method) that serves each admitted Client
// through a one-shot net.Listener adapter rather than owning its own accept
// loop — the Acceptor (§4.4) already performed admission control before the
// socket ever reaches here.
type httpDriverFactory struct {
	srv  *http.Server
	alpn []string
}

// newDefaultDriverFactory builds the shared *http.Server from tuning and
// wires handler as its top-level mux, with errHandler invoked for panics
// and routing failures handler does not itself cover.
func newDefaultDriverFactory(handler http.Handler, tuning *HTTPTuning, errHandler ErrorHandler) *httpDriverFactory {
	if errHandler == nil {
		errHandler = newDefaultErrorHandler()
	}

	srv := &http.Server{
		Handler: recoveringHandler{next: handler, err: errHandler},
	}

	h2 := &http2.Server{}

	if tuning != nil {
		if tuning.ReadTimeout > 0 {
			srv.ReadTimeout = tuning.ReadTimeout
		}
		if tuning.ReadHeaderTimeout > 0 {
			srv.ReadHeaderTimeout = tuning.ReadHeaderTimeout
		}
		if tuning.WriteTimeout > 0 {
			srv.WriteTimeout = tuning.WriteTimeout
		}
		if tuning.IdleTimeout > 0 {
			srv.IdleTimeout = tuning.IdleTimeout
			h2.IdleTimeout = tuning.IdleTimeout
		}
		if tuning.MaxHeaderBytes > 0 {
			srv.MaxHeaderBytes = tuning.MaxHeaderBytes
		}
		if tuning.MaxHandlers > 0 {
			h2.MaxHandlers = tuning.MaxHandlers
		}
		if tuning.MaxConcurrentStreams > 0 {
			h2.MaxConcurrentStreams = tuning.MaxConcurrentStreams
		}
		if tuning.MaxUploadBufferPerConnection > 0 {
			h2.MaxUploadBufferPerConnection = tuning.MaxUploadBufferPerConnection
		}
		if tuning.MaxUploadBufferPerStream > 0 {
			h2.MaxUploadBufferPerStream = tuning.MaxUploadBufferPerStream
		}
		h2.PermitProhibitedCipherSuites = tuning.PermitProhibitedCipherSuites
	}

	_ = http2.ConfigureServer(srv, h2)

	return &httpDriverFactory{
		srv:  srv,
		alpn: []string{"h2", "http/1.1"},
	}
}

func (f *httpDriverFactory) GetApplicationLayerProtocols() []string {
	out := make([]string, len(f.alpn))
	copy(out, f.alpn)
	return out
}

func (f *httpDriverFactory) CreateDriver(_ *Client) Driver {
	return &httpDriver{srv: f.srv}
}

type httpDriver struct {
	srv *http.Server
}

// Serve hands c's socket to the shared *http.Server through a one-shot
// listener: Accept yields c.Conn exactly once, then blocks until ctx is
// cancelled or the server closes the connection, at which point it returns
// net.ErrClosed so Serve returns without tearing down the shared server.
func (d *httpDriver) Serve(ctx context.Context, c *Client) {
	ln := newOneShotListener(nil, c.RemoteAddr)
	ln.conn = closeNotifyConn{Conn: c.Conn, ln: ln}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-done:
		}
	}()

	_ = d.srv.Serve(ln)
	close(done)
}

// closeNotifyConn closes its one-shot listener when the server closes the
// connection, so the listener's pending Accept returns and Serve ends.
type closeNotifyConn struct {
	net.Conn
	ln *oneShotListener
}

func (c closeNotifyConn) Close() error {
	err := c.Conn.Close()
	_ = c.ln.Close()
	return err
}

// oneShotListener is a net.Listener wrapping a single already-accepted
// net.Conn, letting a *http.Server.Serve loop own exactly one connection
// handed to it out-of-band by the Acceptor's own admission-controlled
// accept step.
type oneShotListener struct {
	conn   net.Conn
	addr   net.Addr
	used   atomic.Bool
	closed chan struct{}
	once   sync.Once
}

func newOneShotListener(conn net.Conn, addr net.Addr) *oneShotListener {
	return &oneShotListener{
		conn:   conn,
		addr:   addr,
		closed: make(chan struct{}),
	}
}

func (l *oneShotListener) Accept() (net.Conn, error) {
	if !l.used.CompareAndSwap(false, true) {
		<-l.closed
		return nil, net.ErrClosed
	}

	return l.conn, nil
}

func (l *oneShotListener) Close() error {
	l.once.Do(func() {
		close(l.closed)
	})
	return nil
}

func (l *oneShotListener) Addr() net.Addr {
	if l.addr != nil {
		return l.addr
	}
	return l.conn.LocalAddr()
}

// recoveringHandler adapts a Responder-style http.Handler, routing panics
// and nil-handler conditions to the configured ErrorHandler instead of
// letting net/http's own recovery close the connection silently.
type recoveringHandler struct {
	next http.Handler
	err  ErrorHandler
}

func (h recoveringHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			err, ok := rec.(error)
			if !ok {
				err = errRecovered{rec}
			}
			h.err.HandleError(w, r, http.StatusInternalServerError, err)
		}
	}()

	if h.next == nil {
		h.err.HandleError(w, r, http.StatusInternalServerError, errNoResponder)
		return
	}

	h.next.ServeHTTP(w, r)
}

type errRecovered struct{ v interface{} }

func (e errRecovered) Error() string {
	return "panic recovered"
}

var errNoResponder = errRecovered{types.BadHandlerName}
