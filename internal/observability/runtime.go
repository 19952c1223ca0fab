package observability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cdlite/portal-api/internal/config"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Runtime owns the three telemetry providers for the life of the process.
type Runtime struct {
	LoggerProvider *sdklog.LoggerProvider
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider
}

// InitRuntime brings the providers up in order: logs, then metrics, then
// traces. A failure part-way tears down whatever already started, so the
// caller never holds a half-initialized runtime.
func InitRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	var started []func(context.Context) error
	unwind := func() {
		for i := len(started) - 1; i >= 0; i-- {
			_ = started[i](ctx)
		}
	}

	lp, err := InitLogs(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if lp != nil {
		started = append(started, lp.Shutdown)
	}

	mp, err := InitMetrics(ctx, cfg, logger)
	if err != nil {
		unwind()
		return nil, err
	}
	started = append(started, mp.Shutdown)

	tp, err := InitTracing(ctx, cfg, logger)
	if err != nil {
		unwind()
		return nil, err
	}

	return &Runtime{LoggerProvider: lp, MeterProvider: mp, TracerProvider: tp}, nil
}

// Shutdown flushes and stops every provider, collecting all failures.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.LoggerProvider != nil {
		errs = append(errs, r.LoggerProvider.Shutdown(ctx))
	}
	if r.MeterProvider != nil {
		errs = append(errs, r.MeterProvider.Shutdown(ctx))
	}
	if r.TracerProvider != nil {
		errs = append(errs, r.TracerProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
