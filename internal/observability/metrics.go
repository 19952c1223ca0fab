package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cdlite/portal-api/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
)

type AppMetrics struct {
	authLoginCounter         metric.Int64Counter
	authFlowCounter          metric.Int64Counter
	tokenRedemptionCounter   metric.Int64Counter
	authReqDuration          metric.Float64Histogram
	sessionValidationCounter metric.Int64Counter
	csrfValidationCounter    metric.Int64Counter
	capabilityCounter        metric.Int64Counter
	rateLimitDecisionCounter metric.Int64Counter
	mailDeliveryCounter      metric.Int64Counter
	healthCheckResultCounter metric.Int64Counter
	middlewareEventCounter   metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("describe metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "auth.request.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter("cdlite-portal-api")
	loginCounter, err := meter.Int64Counter("auth.login.attempts")
	if err != nil {
		return nil, err
	}
	flowCounter, err := meter.Int64Counter("auth.lifecycle.events")
	if err != nil {
		return nil, err
	}
	redemptionCounter, err := meter.Int64Counter("auth.token.redemptions")
	if err != nil {
		return nil, err
	}
	authReqDuration, err := meter.Float64Histogram("auth.request.duration", metric.WithUnit("s"), metric.WithDescription("Duration of auth endpoint requests in seconds"))
	if err != nil {
		return nil, err
	}
	sessionValidationCounter, err := meter.Int64Counter("auth.session.validation.events")
	if err != nil {
		return nil, err
	}
	csrfValidationCounter, err := meter.Int64Counter("security.csrf.validation.events")
	if err != nil {
		return nil, err
	}
	capabilityCounter, err := meter.Int64Counter("identity.capability.decisions")
	if err != nil {
		return nil, err
	}
	rateLimitDecisionCounter, err := meter.Int64Counter("http.rate_limit.decisions")
	if err != nil {
		return nil, err
	}
	mailDeliveryCounter, err := meter.Int64Counter("mail.delivery.events")
	if err != nil {
		return nil, err
	}
	healthCheckResultCounter, err := meter.Int64Counter("health.check.results")
	if err != nil {
		return nil, err
	}
	middlewareEventCounter, err := meter.Int64Counter("http.middleware.validation.events")
	if err != nil {
		return nil, err
	}

	metricsMu.Lock()
	appMetrics = &AppMetrics{
		authLoginCounter:         loginCounter,
		authFlowCounter:          flowCounter,
		tokenRedemptionCounter:   redemptionCounter,
		authReqDuration:          authReqDuration,
		sessionValidationCounter: sessionValidationCounter,
		csrfValidationCounter:    csrfValidationCounter,
		capabilityCounter:        capabilityCounter,
		rateLimitDecisionCounter: rateLimitDecisionCounter,
		mailDeliveryCounter:      mailDeliveryCounter,
		healthCheckResultCounter: healthCheckResultCounter,
		middlewareEventCounter:   middlewareEventCounter,
	}
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordAuthLogin(ctx context.Context, status string) {
	m := current()
	if m == nil {
		return
	}
	m.authLoginCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordAuthFlow counts account-lifecycle events: signup, verify, resend,
// forgot, reset, logout.
func RecordAuthFlow(ctx context.Context, flow, status string) {
	m := current()
	if m == nil {
		return
	}
	m.authFlowCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("status", status),
	))
}

func RecordTokenRedemption(ctx context.Context, purpose, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.tokenRedemptionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("purpose", purpose),
		attribute.String("outcome", outcome),
	))
}

func RecordAuthRequestDuration(ctx context.Context, endpoint, status string, d time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.authReqDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status", status),
	))
}

func RecordSessionValidation(ctx context.Context, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.sessionValidationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordCSRFValidation(ctx context.Context, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.csrfValidationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordCapabilityDecision(ctx context.Context, capability string, allowed bool) {
	m := current()
	if m == nil {
		return
	}
	m.capabilityCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capability", capability),
		attribute.Bool("allowed", allowed),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, decision string) {
	m := current()
	if m == nil {
		return
	}
	m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("decision", decision),
	))
}

func RecordMailDelivery(ctx context.Context, template, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.mailDeliveryCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("template", template),
		attribute.String("outcome", outcome),
	))
}

func RecordMiddlewareValidationEvent(ctx context.Context, component, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.middlewareEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheckResult(ctx context.Context, name string, healthy bool) {
	m := current()
	if m == nil {
		return
	}
	m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", name),
		attribute.Bool("healthy", healthy),
	))
}
