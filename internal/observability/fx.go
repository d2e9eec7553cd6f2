package observability

import (
	"github.com/smallbiznis/warehouse/internal/observability/logger"
	"github.com/smallbiznis/warehouse/internal/observability/metrics"
	"github.com/smallbiznis/warehouse/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(NewConfig),
	fx.Provide(
		func(c Config) logger.Config {
			return logger.Config{
				ServiceName:         c.ServiceName,
				Environment:         c.Environment,
				Version:             c.Version,
				Level:               c.Telemetry.LogLevel,
				Format:              c.Telemetry.LogFormat,
				Debug:               c.Debug(),
				IncludeCaller:       true,
				IncludeStackOnError: c.Debug(),
			}
		},
		logger.New,
	),
	fx.Provide(
		func(c Config) tracing.Config {
			return tracing.Config{
				Enabled:          c.Telemetry.OTLPEnabled,
				ServiceName:      c.ServiceName,
				ServiceVersion:   c.Version,
				Environment:      c.Environment,
				ExporterEndpoint: c.Telemetry.OTLPEndpoint,
				ExporterProtocol: c.Telemetry.OTLPProtocol,
				SamplingRatio:    c.Telemetry.SamplingRatio,
			}
		},
		tracing.NewProvider,
	),
	fx.Provide(
		func(c Config) metrics.Config {
			return metrics.Config{
				Enabled:          c.Telemetry.OTLPEnabled,
				ExporterEndpoint: c.Telemetry.OTLPEndpoint,
				ExporterProtocol: c.Telemetry.OTLPProtocol,
				ServiceName:      c.ServiceName,
				Environment:      c.Environment,
			}
		},
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	// The tracer provider has no other consumer; force it so the global
	// propagator and exporter get installed.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
