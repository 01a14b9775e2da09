// Package trace is the fire-and-forget tracing sink for model invocations.
// Emitting a record must never fail the invocation that produced it.
package trace

import (
	"context"
	"time"

	logx "github.com/shipmentbot/server/pkg/logger"
)

// Record describes one model invocation, tagged with the extraction node
// that issued it.
type Record struct {
	Project string
	Node    string
	Model   string
	Attempt int
	Elapsed time.Duration
	Err     error
}

// Sink receives invocation records. Implementations must be safe for
// concurrent use; the caller swallows every failure.
type Sink interface {
	Emit(ctx context.Context, rec Record)
}

// Emit forwards rec to sink, recovering from any panic. A nil sink is a
// no-op, so callers never need to branch on tracing being disabled.
func Emit(ctx context.Context, sink Sink, rec Record) {
	if sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logx.Warn().Str("component", "trace").Msgf("trace sink panic recovered: %v", r)
		}
	}()
	sink.Emit(ctx, rec)
}

// LogSink writes records to the structured log. The default sink when
// tracing is enabled without an external collector.
type LogSink struct{}

func (LogSink) Emit(_ context.Context, rec Record) {
	evt := logx.Debug().
		Str("project", rec.Project).
		Str("node", rec.Node).
		Str("model", rec.Model).
		Int("attempt", rec.Attempt).
		Dur("elapsed", rec.Elapsed)
	if rec.Err != nil {
		evt = evt.Err(rec.Err)
	}
	evt.Msg("model invocation")
}
