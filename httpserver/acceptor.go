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
	"sync/atomic"

	loglvl "github.com/nabbar/httpcore/logger/level"
)

// acceptor owns the accept loop for one BoundListener. Go's net.Listener is
// already a blocking-with-context-free-cancellation primitive, so "readable
// event watcher" (spec.md §4.4) is realized here as a goroutine blocked in
// Accept that exits when the listener is closed by stop().
type acceptor struct {
	sv  *supervisor
	bl  *BoundListener
	ctx context.Context
	cnl context.CancelFunc
}

func newAcceptor(sv *supervisor, bl *BoundListener) *acceptor {
	ctx, cnl := context.WithCancel(context.Background())
	return &acceptor{sv: sv, bl: bl, ctx: ctx, cnl: cnl}
}

// run is the accept loop; it returns once bl.Listener is closed.
func (a *acceptor) run() {
	for {
		conn, err := a.bl.Listener.Accept()
		if err != nil {
			select {
			case <-a.ctx.Done():
				return
			default:
			}

			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}

			// Fatal for this listener only: close it, log, and leave the
			// other listeners serving.
			a.sv.logLevel(loglvl.ErrorLevel, "listener "+a.bl.Address+" stopped accepting: "+err.Error(), nil)
			_ = a.bl.Listener.Close()
			return
		}

		if conn == nil {
			// spurious wakeup, §4.4 step 1.
			continue
		}

		a.accept(conn)
	}
}

func (a *acceptor) stop() {
	a.cnl()
}

// accept implements spec.md §4.4 steps 2-7 for one freshly-accepted socket.
func (a *acceptor) accept(conn net.Conn) {
	sv := a.sv
	remote := conn.RemoteAddr()

	c := &Client{
		ID:         sv.nextConnID(),
		Conn:       conn,
		RemoteAddr: remote,
		NetworkID:  networkID(remote),
		IsUnix:     isUnix(remote),
	}

	exempt := c.IsUnix || isLoopback(remote)

	// globalReserved/peerReserved track which counters admission actually
	// incremented for this client, so the close callback below releases
	// exactly those and nothing else: admitPeer never runs (and never
	// touches perPeer) when global admission rejects first, so releasing
	// it unconditionally would decrement another, still-live client's
	// reservation for the same peer.
	var globalReserved, peerReserved bool

	c.onClose = func(cc *Client) {
		sv.registry.remove(cc.ID)
		sv.timeouts.Clear(cc.ID)
		if peerReserved {
			sv.registry.releasePeer(cc.NetworkID, exempt)
		}
		if globalReserved {
			sv.registry.releaseGlobal()
		}
	}

	admittedGlobal := sv.registry.admitGlobal(sv.opts.MaxConnections)
	globalReserved = true

	if !admittedGlobal {
		sv.logDebug("too many existing connections", c)
		_ = c.Close()
		return
	}

	admittedPeer := sv.registry.admitPeer(c.NetworkID, sv.opts.MaxConnectionsPerPeer, exempt)
	peerReserved = !exempt

	if !admittedPeer {
		sv.logDebug("too many existing connections for peer", c)
		_ = c.Close()
		return
	}

	sv.registry.insert(c)
	sv.timeouts.Renew(c.ID, sv.timeref.Now()+int64(sv.opts.ConnectionTimeout.Seconds()))

	driver := sv.driverFactory.CreateDriver(c)

	go func() {
		driver.Serve(sv.runCtx(), c)
		_ = c.Close()
	}()
}

// timeoutSweeper closes clients whose TimeoutCache entry has expired,
// walking from the head and stopping at the first non-expired entry
// (spec.md §4.5).
type timeoutSweeper struct {
	sv      *supervisor
	running atomic.Bool
}

func (s *timeoutSweeper) onTick(now int64) {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	defer s.running.Store(false)

	for _, e := range s.sv.timeouts.Iterate() {
		if now < e.ExpiresAt {
			return
		}

		if c, ok := s.sv.registry.get(e.ID); ok {
			s.sv.logLevel(loglvl.DebugLevel, "closing idle connection", c)
			_ = c.Close()
		} else {
			s.sv.timeouts.Clear(e.ID)
		}
	}
}
