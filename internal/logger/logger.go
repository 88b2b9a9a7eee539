// Package logger wraps log/slog with optional OpenTelemetry tracing.
// Log records written inside a span carry its trace_id and span_id.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "signal-sentinel"

// Config holds logging configuration.
type Config struct {
	Level          string // DEBUG, INFO, WARN, ERROR
	Format         string // json or text
	TracingEnabled bool
}

var (
	mu             sync.RWMutex
	base           = slog.Default()
	tracingEnabled bool
	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider
)

// Init installs the global logger writing to stdout and, when enabled,
// a stdout span exporter.
func Init(cfg Config) error {
	return InitWithWriter(cfg, os.Stdout)
}

// InitWithWriter is Init with an explicit log destination.
func InitWithWriter(cfg Config, w io.Writer) error {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	l := slog.New(handler).With(slog.String("service", serviceName))

	mu.Lock()
	base = l
	tracingEnabled = false
	mu.Unlock()
	slog.SetDefault(l)

	if !cfg.TracingEnabled {
		return nil
	}
	if err := initTracer(); err != nil {
		l.Warn("tracing disabled", "error", err)
		return nil
	}
	mu.Lock()
	tracingEnabled = true
	mu.Unlock()
	return nil
}

func initTracer() error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return err
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	mu.Lock()
	tracerProvider = tp
	tracer = tp.Tracer(serviceName)
	mu.Unlock()
	return nil
}

// Shutdown flushes pending spans.
func Shutdown(ctx context.Context) error {
	mu.RLock()
	tp := tracerProvider
	mu.RUnlock()
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// ParseLevel maps DEBUG/INFO/WARN/ERROR onto slog levels, defaulting to INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StartSpan starts a span when tracing is enabled; otherwise it returns
// the span already in ctx (possibly a no-op span).
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	mu.RLock()
	t, on := tracer, tracingEnabled
	mu.RUnlock()
	if !on || t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.Start(ctx, name, opts...)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// TraceAttrs returns trace_id/span_id attributes for the span in ctx.
func TraceAttrs(ctx context.Context) []any {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return nil
	}
	return []any{
		"trace_id", sc.TraceID().String(),
		"span_id", sc.SpanID().String(),
	}
}

// L returns the global logger.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func Debug(ctx context.Context, msg string, args ...any) { log(ctx, slog.LevelDebug, msg, args) }
func Info(ctx context.Context, msg string, args ...any)  { log(ctx, slog.LevelInfo, msg, args) }
func Warn(ctx context.Context, msg string, args ...any)  { log(ctx, slog.LevelWarn, msg, args) }
func Error(ctx context.Context, msg string, args ...any) { log(ctx, slog.LevelError, msg, args) }

func log(ctx context.Context, level slog.Level, msg string, args []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if attrs := TraceAttrs(ctx); attrs != nil {
		args = append(attrs, args...)
	}
	L().Log(ctx, level, msg, args...)
}
