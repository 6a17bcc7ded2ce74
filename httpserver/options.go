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
	"fmt"
	"time"

	libval "github.com/go-playground/validator/v10"
	liberr "github.com/nabbar/httpcore/errors"
	"github.com/nabbar/httpcore/httpserver/types"
)

// HTTPTuning holds the per-listener HTTP/1.x and HTTP/2 tuning knobs a
// default driver factory consumes. A custom HttpDriverFactory may ignore it
// entirely.
type HTTPTuning struct {
	ReadTimeout          time.Duration `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty" toml:"readTimeout,omitempty" validate:"gte=0"`
	ReadHeaderTimeout    time.Duration `json:"readHeaderTimeout,omitempty" yaml:"readHeaderTimeout,omitempty" toml:"readHeaderTimeout,omitempty" validate:"gte=0"`
	WriteTimeout         time.Duration `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty" toml:"writeTimeout,omitempty" validate:"gte=0"`
	IdleTimeout          time.Duration `json:"idleTimeout,omitempty" yaml:"idleTimeout,omitempty" toml:"idleTimeout,omitempty" validate:"gte=0"`
	MaxHeaderBytes       int           `json:"maxHeaderBytes,omitempty" yaml:"maxHeaderBytes,omitempty" toml:"maxHeaderBytes,omitempty" validate:"gte=0"`
	MaxHandlers          int           `json:"maxHandlers,omitempty" yaml:"maxHandlers,omitempty" toml:"maxHandlers,omitempty" validate:"gte=0"`
	MaxConcurrentStreams uint32        `json:"maxConcurrentStreams,omitempty" yaml:"maxConcurrentStreams,omitempty" toml:"maxConcurrentStreams,omitempty"`
	MaxUploadBufferPerConnection int32 `json:"maxUploadBufferPerConnection,omitempty" yaml:"maxUploadBufferPerConnection,omitempty" toml:"maxUploadBufferPerConnection,omitempty"`
	MaxUploadBufferPerStream     int32 `json:"maxUploadBufferPerStream,omitempty" yaml:"maxUploadBufferPerStream,omitempty" toml:"maxUploadBufferPerStream,omitempty"`

	// PermitProhibitedCipherSuites allows the HTTP/2 server to accept the
	// cipher suites RFC 7540 blocklists. Off by default; only exists for
	// compatibility with legacy clients.
	PermitProhibitedCipherSuites bool `json:"permitProhibitedCipherSuites,omitempty" yaml:"permitProhibitedCipherSuites,omitempty" toml:"permitProhibitedCipherSuites,omitempty"`
}

// Options is the immutable configuration bundle the Supervisor validates at
// construction time and never mutates afterward.
type Options struct {
	// ConnectionTimeout is the idle duration after which an accepted client
	// with no renewed timeout entry is closed by the Timeout Sweeper.
	ConnectionTimeout time.Duration `json:"connectionTimeout" yaml:"connectionTimeout" toml:"connectionTimeout" validate:"required,gt=0"`

	// ShutdownTimeout bounds stop(): past this deadline stop() resolves with
	// a TimeoutError while the shutdown sequence keeps running to completion.
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout" toml:"shutdownTimeout" validate:"required,gt=0"`

	// MaxConnections is the global admission ceiling (I2).
	MaxConnections int64 `json:"maxConnections" yaml:"maxConnections" toml:"maxConnections" validate:"required,gt=0"`

	// MaxConnectionsPerPeer is the per-network-id admission ceiling (I3),
	// exempting loopback and Unix-domain peers.
	MaxConnectionsPerPeer int64 `json:"maxConnectionsPerPeer" yaml:"maxConnectionsPerPeer" toml:"maxConnectionsPerPeer" validate:"required,gt=0"`

	// HTTPTuning is optional per-listener HTTP/1.x and HTTP/2 tuning
	// consumed by the default HttpDriverFactory.
	HTTPTuning *HTTPTuning `json:"httpTuning,omitempty" yaml:"httpTuning,omitempty" toml:"httpTuning,omitempty"`
}

// DefaultOptions returns an Options pre-filled with the teacher's own
// shutdown-grace-period constant (httpserver/types.TimeoutWaitingStop) and
// permissive connection ceilings, ready for Validate or direct use.
func DefaultOptions() *Options {
	return &Options{
		ConnectionTimeout:     types.TimeoutWaitingStop,
		ShutdownTimeout:       types.TimeoutWaitingStop,
		MaxConnections:        1024,
		MaxConnectionsPerPeer: 64,
	}
}

// Validate checks the Options struct against its validation tags, wrapping
// every violation into a single ErrorInvalidState chain.
func (o *Options) Validate() liberr.Error {
	var e = ErrorInvalidState.Error(nil)

	if err := libval.New().Struct(o); err != nil {
		if er, ok := err.(*libval.InvalidValidationError); ok {
			e.Add(er)
		} else if ve, ok := err.(libval.ValidationErrors); ok {
			for _, er := range ve {
				//nolint #goerr113
				e.Add(fmt.Errorf("options field '%s' is not validated by constraint '%s'", er.Namespace(), er.ActualTag()))
			}
		} else {
			e.Add(err)
		}
	}

	if !e.HasParent() {
		return nil
	}

	return e
}

// Clone returns an independent copy of the Options.
func (o *Options) Clone() *Options {
	if o == nil {
		return nil
	}

	var t *HTTPTuning
	if o.HTTPTuning != nil {
		c := *o.HTTPTuning
		t = &c
	}

	return &Options{
		ConnectionTimeout:     o.ConnectionTimeout,
		ShutdownTimeout:       o.ShutdownTimeout,
		MaxConnections:        o.MaxConnections,
		MaxConnectionsPerPeer: o.MaxConnectionsPerPeer,
		HTTPTuning:            t,
	}
}
