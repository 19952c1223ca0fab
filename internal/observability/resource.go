package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/cdlite/portal-api/internal/config"
)

// newResource describes this service identically to every telemetry signal,
// so portal logs, metrics, and traces join up in the backend.
func newResource(ctx context.Context, cfg *config.Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("service.namespace", "cdlite"),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
}
