package database

import (
	"context"
	"time"

	"github.com/satishbabariya/wporm/internal/debug"
)

// QueryEvent describes one statement sent to the database.
type QueryEvent struct {
	Op       string
	Query    string
	Args     []any
	Start    time.Time
	End      time.Time
	Duration time.Duration
	Error    error
}

// Middleware intercepts statements. It must call next exactly once.
type Middleware func(ctx context.Context, event *QueryEvent, next func() error) error

// run executes exec through the middleware chain.
func (s *SQL) run(ctx context.Context, op, query string, args []any, exec func() error) error {
	event := &QueryEvent{
		Op:    op,
		Query: query,
		Args:  args,
		Start: time.Now(),
	}

	index := 0
	var next func() error
	next = func() error {
		if index >= len(s.middlewares) {
			err := exec()
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Error = err
			return err
		}
		mw := s.middlewares[index]
		index++
		return mw(ctx, event, next)
	}
	return next()
}

// LoggingMiddleware logs every statement at debug level and failures at error level.
func LoggingMiddleware() Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil {
			debug.Error("statement failed", "op", event.Op, "sql", event.Query, "args", event.Args, "error", err)
			return err
		}
		debug.Debug("statement", "op", event.Op, "sql", event.Query, "args", event.Args, "duration", event.Duration)
		return nil
	}
}

// TimingMiddleware reports the duration of every statement.
func TimingMiddleware(onTiming func(op, query string, duration time.Duration)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event.Op, event.Query, event.Duration)
		}
		return err
	}
}

// ErrorMiddleware reports failed statements.
func ErrorMiddleware(onError func(query string, err error)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event.Query, err)
		}
		return err
	}
}
