// Package tracing inicializa OpenTelemetry y expone helpers de spans.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/dropDatabas3/simguard/internal/observability/logger"
)

const tracerName = "github.com/dropDatabas3/simguard"

// Config de tracing. Endpoint vacío = tracing deshabilitado (no-op).
type Config struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
	Version     string
	SampleRatio float64
}

// Init configura el TracerProvider global y retorna la función de shutdown.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	log := logger.Named("tracing")
	if cfg.Endpoint == "" {
		log.Info("tracing disabled (no otlp endpoint)")
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	name := cfg.ServiceName
	if name == "" {
		name = "simguard"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(name),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)

	log.Info("tracing enabled", logger.String("endpoint", cfg.Endpoint))
	return tp.Shutdown, nil
}

// StartSpan inicia un span con atributos opcionales.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// EndSpan registra err (si hay) y cierra el span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func PaymentAttempt(id string) attribute.KeyValue {
	return attribute.String("payment.attempt_id", id)
}

func ChallengeID(id string) attribute.KeyValue {
	return attribute.String("challenge.id", id)
}

func RiskTier(t string) attribute.KeyValue {
	return attribute.String("risk.tier", t)
}

func Decision(d string) attribute.KeyValue {
	return attribute.String("gate.decision", d)
}

func Provider(p string) attribute.KeyValue {
	return attribute.String("oracle.provider", p)
}

func BatchSize(n int) attribute.KeyValue {
	return attribute.Int("oracle.batch_size", n)
}
