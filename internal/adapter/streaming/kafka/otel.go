package kafka

import (
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"
)

// otelHooks builds the franz-go hook set that traces produce requests.
func otelHooks() []kgo.Hook {
	tracer := kotel.NewTracer(
		kotel.TracerProvider(otel.GetTracerProvider()),
	)
	service := kotel.NewKotel(
		kotel.WithTracer(tracer),
	)
	return service.Hooks()
}
