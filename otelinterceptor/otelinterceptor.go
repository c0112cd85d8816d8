// Package otelinterceptor traces stub calls with OpenTelemetry.
package otelinterceptor

import (
	"context"
	"strings"

	"github.com/opensraph/stub"
	"github.com/opensraph/stub/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/metadata"
)

const instrumentationName = "github.com/opensraph/stub/otelinterceptor"

type Option func(c *config)

type config struct {
	tracerProvider trace.TracerProvider
	propagators    propagation.TextMapPropagator
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		c.tracerProvider = tp
	}
}

// WithPropagators overrides the global propagators. The span context is
// injected into a copy of the call metadata; the caller's map is never
// modified.
func WithPropagators(p propagation.TextMapPropagator) Option {
	return func(c *config) {
		c.propagators = p
	}
}

// New returns an interceptor that wraps every call in a client span named
// after the procedure and tagged with the rpc.* semantic conventions.
func New(opts ...Option) stub.Interceptor {
	c := config{
		tracerProvider: otel.GetTracerProvider(),
		propagators:    otel.GetTextMapPropagator(),
	}
	for _, o := range opts {
		o(&c)
	}
	tracer := c.tracerProvider.Tracer(instrumentationName)

	return stub.UnaryInterceptorFunc(func(next stub.UnaryFunc) stub.UnaryFunc {
		return func(ctx context.Context, call *stub.Call) (*stub.Reply, error) {
			ctx, span := tracer.Start(ctx, spanName(call.Procedure),
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					semconv.RPCSystemGRPC,
					semconv.RPCServiceKey.String(call.Service()),
					semconv.RPCMethodKey.String(call.Method()),
					attribute.Int("rpc.request.size", len(call.Payload)),
				),
			)
			defer span.End()

			carrier := metadataCarrier{md: call.Metadata}
			c.propagators.Inject(ctx, &carrier)
			if carrier.copied {
				traced := *call
				traced.Metadata = carrier.md
				call = &traced
			}

			reply, err := next(ctx, call)
			code := errors.CodeOf(err)
			span.SetAttributes(semconv.RPCGRPCStatusCodeKey.Int(int(code)))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(otelcodes.Error, err.Error())
				return nil, err
			}
			span.SetAttributes(attribute.Int("rpc.response.size", len(reply.Payload)))
			return reply, nil
		}
	})
}

// spanName drops the leading slash: "package.Service/Method".
func spanName(procedure string) string {
	return strings.TrimPrefix(procedure, "/")
}

var _ propagation.TextMapCarrier = (*metadataCarrier)(nil)

// metadataCarrier copies md on the first write.
type metadataCarrier struct {
	md     metadata.MD
	copied bool
}

func (c *metadataCarrier) Get(key string) string {
	if vals := c.md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func (c *metadataCarrier) Set(key, value string) {
	if !c.copied {
		if c.md == nil {
			c.md = metadata.MD{}
		} else {
			c.md = c.md.Copy()
		}
		c.copied = true
	}
	c.md.Set(key, value)
}

func (c *metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c.md))
	for k := range c.md {
		keys = append(keys, k)
	}
	return keys
}
