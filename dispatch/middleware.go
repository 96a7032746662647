package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	berr "github.com/next-trace/scg-cqrs/contract/errors"
)

const tracerName = "github.com/next-trace/scg-cqrs/dispatch"

// Logging logs the start and end of every dispatch with its duration.
//
// Example:
//
//	m, err := dispatch.New(reg, dispatch.WithMiddleware(dispatch.Logging(logger)))
func Logging(logger *slog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, msg any) (any, error) {
			info, _ := InfoFrom(ctx)
			attrs := []any{
				slog.String("message", info.Message),
				slog.String("kind", info.Kind.String()),
				slog.String("dispatch_id", info.ID),
			}

			logger.DebugContext(ctx, "dispatch started", attrs...)

			start := time.Now()
			res, err := next(ctx, msg)
			attrs = append(attrs, slog.Duration("duration", time.Since(start)))

			if err != nil {
				logger.ErrorContext(ctx, "dispatch failed", append(attrs, slog.String("error", err.Error()))...)
				return res, err
			}

			logger.InfoContext(ctx, "dispatch completed", attrs...)

			return res, nil
		}
	}
}

// Recovery turns a handler panic into an error wrapping ErrHandlerPanicked.
// Register it last so it sits closest to the handler.
func Recovery() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, msg any) (res any, err error) {
			defer func() {
				if r := recover(); r != nil {
					info, _ := InfoFrom(ctx)
					res = nil
					err = &PanicError{Message: info.Message, Value: r, Stack: debug.Stack()}
				}
			}()

			return next(ctx, msg)
		}
	}
}

// PanicError carries a recovered handler panic.
type PanicError struct {
	Message string
	Value   any
	Stack   []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handle %s: panic: %v", e.Message, e.Value)
}

// Unwrap exposes ErrHandlerPanicked, and the panic value when it is an error.
func (e *PanicError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{berr.ErrHandlerPanicked, err}
	}

	return []error{berr.ErrHandlerPanicked}
}

// Tracing starts one span per dispatch named "cqrs.<kind> <message>".
// A nil provider disables tracing.
func Tracing(tp trace.TracerProvider) Middleware {
	if tp == nil {
		return func(next HandlerFunc) HandlerFunc { return next }
	}

	tracer := tp.Tracer(tracerName)

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, msg any) (any, error) {
			info, _ := InfoFrom(ctx)

			ctx, span := tracer.Start(ctx, "cqrs."+info.Kind.String()+" "+info.Message,
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(
					attribute.String("cqrs.kind", info.Kind.String()),
					attribute.String("cqrs.message", info.Message),
					attribute.String("cqrs.dispatch_id", info.ID),
				))
			defer span.End()

			res, err := next(ctx, msg)
			if err != nil {
				if code := berr.CodeOf(err); code != "" {
					span.SetAttributes(attribute.String("cqrs.error_code", code))
				}

				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())

				return res, err
			}

			span.SetStatus(codes.Ok, "")

			return res, nil
		}
	}
}
