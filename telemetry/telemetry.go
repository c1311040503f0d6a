// Package telemetry configures the OpenTelemetry tracer provider
// and declares the OpenInference span attributes used by the agents.
package telemetry

import (
	"context"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/config"
	"github.com/effective-security/xlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.40.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore", "telemetry")

// Exporters
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// OpenInference attribute keys
const (
	AttrSpanKind        = attribute.Key("openinference.span.kind")
	AttrProjectName     = attribute.Key("openinference.project.name")
	AttrInputValue      = attribute.Key("input.value")
	AttrOutputValue     = attribute.Key("output.value")
	AttrLLMModelName    = attribute.Key("llm.model_name")
	AttrLLMPromptTokens = attribute.Key("llm.token_count.prompt")
	AttrLLMOutputTokens = attribute.Key("llm.token_count.completion")
	AttrToolName        = attribute.Key("tool.name")
	AttrToolParameters  = attribute.Key("tool.parameters")
	AttrAgentName       = attribute.Key("agent.name")
	AttrSessionID       = attribute.Key("session.id")
	AttrUserID          = attribute.Key("user.id")
	AttrTags            = attribute.Key("tag.tags")
)

// SpanKind is the OpenInference span kind.
type SpanKind string

// Span kinds
const (
	SpanKindAgent SpanKind = "AGENT"
	SpanKindLLM   SpanKind = "LLM"
	SpanKindTool  SpanKind = "TOOL"
	SpanKindChain SpanKind = "CHAIN"
)

// Attribute returns the span kind attribute.
func (k SpanKind) Attribute() attribute.KeyValue {
	return AttrSpanKind.String(string(k))
}

// ShutdownFunc flushes and stops the exporter.
type ShutdownFunc func(context.Context) error

// Option configures Init.
type Option func(*options)

type options struct {
	writer io.Writer
	global bool
}

// WithWriter sets the output of the stdout exporter.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithGlobal registers the provider with otel.SetTracerProvider.
func WithGlobal(enabled bool) Option {
	return func(o *options) {
		o.global = enabled
	}
}

// Init returns the tracer provider for the configured exporter.
// The "none" exporter returns a noop provider.
// The "otlp" exporter sends spans over gRPC with the Arize space and key headers.
func Init(ctx context.Context, cfg config.Telemetry, opts ...Option) (trace.TracerProvider, ShutdownFunc, error) {
	o := &options{writer: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	exp, err := newExporter(ctx, cfg, o)
	if err != nil {
		return nil, nil, err
	}
	if exp == nil {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ProjectName),
			AttrProjectName.String(cfg.ProjectName),
		),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create resource")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	if o.global {
		otel.SetTracerProvider(tp)
	}

	logger.KV(xlog.INFO,
		"status", "tracing_enabled",
		"exporter", cfg.Exporter,
		"project", cfg.ProjectName,
	)
	return tp, tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg config.Telemetry, o *options) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case "", ExporterNone:
		return nil, nil
	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(o.writer), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, errors.Wrap(err, "failed to create stdout exporter")
		}
		return exp, nil
	case ExporterOTLP:
		if cfg.SpaceID == "" || cfg.APIKey == "" {
			return nil, errors.New("ARIZE_SPACE_ID and ARIZE_API_KEY are required for otlp exporter")
		}
		copts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithHeaders(map[string]string{
				"space_id": cfg.SpaceID,
				"api_key":  cfg.APIKey,
			}),
		}
		if cfg.Insecure {
			copts = append(copts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, copts...)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create OTLP exporter")
		}
		return exp, nil
	default:
		return nil, errors.Newf("unsupported exporter: %s", cfg.Exporter)
	}
}

// TraceAttributes are attached to every agent span.
type TraceAttributes map[string]string

// KeyValues returns the attributes sorted by key.
func (a TraceAttributes) KeyValues() []attribute.KeyValue {
	if len(a) == 0 {
		return nil
	}
	kv := make([]attribute.KeyValue, 0, len(a))
	for k, v := range a {
		kv = append(kv, attribute.String(k, v))
	}
	slices.SortFunc(kv, func(x, y attribute.KeyValue) int {
		return strings.Compare(string(x.Key), string(y.Key))
	})
	return kv
}
