// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbudp

import (
	"time"

	"code.hybscloud.com/rbudp/internal/diag"
)

// Options configures a Sender or Receiver session.
type Options struct {
	// BlockSize is the payload size of one block, in bytes. Must be a
	// power of two, at most MaxBlockSize. Zero selects DefaultBlockSize.
	BlockSize uint32

	// ReadTimeout bounds control-channel reads. Zero (the default) means
	// no timeout: a stalled peer stalls the session indefinitely, per the
	// protocol's base design. A positive value implements the bounded
	// inactivity timer the spec allows implementations to add; exceeding
	// it transitions the session to FAILED.
	ReadTimeout time.Duration

	// Log receives stage-tagged diagnostics. Defaults to diag.Default().
	Log diag.Logger
}

var defaultOptions = Options{
	BlockSize:   DefaultBlockSize,
	ReadTimeout: 0,
	Log:         diag.Default(),
}

// Option configures Options.
type Option func(*Options)

// WithBlockSize sets the block size. Must be a power of two, <= MaxBlockSize.
func WithBlockSize(n uint32) Option {
	return func(o *Options) { o.BlockSize = n }
}

// WithReadTimeout sets a bounded inactivity timer on control-channel reads.
func WithReadTimeout(d time.Duration) Option {
	return func(o *Options) { o.ReadTimeout = d }
}

// WithLogger overrides the stage-tagged diagnostic logger.
func WithLogger(l diag.Logger) Option {
	return func(o *Options) { o.Log = l }
}

func resolveOptions(opts []Option) Options {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	if o.BlockSize == 0 {
		o.BlockSize = DefaultBlockSize
	}
	if o.Log == nil {
		o.Log = diag.Default()
	}
	return o
}
