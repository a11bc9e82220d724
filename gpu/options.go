// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"context"
	"log/slog"
	"os"
)

// Option configures a Server.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	frameLatency int
	debug        bool
}

// DefaultFrameLatency is the number of frames a destroyed resource
// waits before release on contexts without fences.
const DefaultFrameLatency = 3

func defaultOptions() options {
	return options{
		logger:       slog.New(nopHandler{}),
		frameLatency: DefaultFrameLatency,
		debug:        os.Getenv("GLHAL_DEBUG") == "1",
	}
}

// WithLogger directs server logging to l. By default the server logs
// nothing. Context creation is logged at Info, context loss at Warn and
// resource lifecycles at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = slog.New(nopHandler{})
		}
		o.logger = l
	}
}

// WithFrameLatency sets the number of frames a destroyed resource waits
// for before release when the context lacks fence objects.
func WithFrameLatency(frames int) Option {
	return func(o *options) {
		if frames < 1 {
			frames = 1
		}
		o.frameLatency = frames
	}
}

// WithDebug checks glGetError after every command and reports GL errors
// as Go errors. Setting GLHAL_DEBUG=1 in the environment has the same
// effect.
func WithDebug(enable bool) Option {
	return func(o *options) {
		o.debug = enable
	}
}

// nopHandler discards all records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
