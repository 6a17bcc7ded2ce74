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

// Package httpserver: quick tour.
//
// Build Options, create a Supervisor, attach a bound listener, then Start:
//
//	opts := &httpserver.Options{
//	    ConnectionTimeout:     30 * time.Second,
//	    ShutdownTimeout:       10 * time.Second,
//	    MaxConnections:        10000,
//	    MaxConnectionsPerPeer: 50,
//	}
//
//	sv, err := httpserver.New(opts, func() logger.Logger { return myLogger })
//	_ = sv.SetResponder(myResponder)
//	_ = sv.AddListener(&httpserver.BoundListener{Address: ln.Addr().String(), Listener: ln})
//	_ = sv.Start(ctx)
//	...
//	_ = sv.Stop(ctx)
//
// Lifecycle: STOPPED -> STARTING -> STARTED -> STOPPING -> STOPPED, driven
// entirely by Start/Stop; AttachObserver/SetDriverFactory/SetErrorHandler/
// SetResponder/AddListener only succeed while STOPPED.
package httpserver
