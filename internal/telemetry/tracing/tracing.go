package tracing

import (
	"github.com/honeycombio/otel-config-go/otelconfig"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var GlobalTracer = otel.Tracer("traintrack-backend")

// Setup configures the OpenTelemetry SDK. When disabled, spans created
// through GlobalTracer are no-ops and the returned shutdown does nothing.
func Setup(enabled bool, serviceName string) (shutdown func(), err error) {
	if !enabled {
		log.Debugln("tracing disabled")
		return func() {}, nil
	}

	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(serviceName),
	)
	if err != nil {
		return nil, err
	}

	return otelShutdown, nil
}

// EndSpanWithErrCheck ends the span, recording err on it if not nil.
func EndSpanWithErrCheck(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	span.End()
}
