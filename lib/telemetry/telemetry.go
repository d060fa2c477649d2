package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

// providers are held at package level so a signal handler can call
// Shutdown without threading them through every caller
var active struct {
	mu             sync.Mutex
	tracerProvider *trace.TracerProvider
	meterProvider  *metric.MeterProvider
}

func Setup(ctx context.Context, serviceName string, config Config) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := newResource(serviceName)
	if err != nil {
		return err
	}

	tracerProvider, err := newTraceProvider(ctx, r, config)
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tracerProvider)

	meterProvider, err := newMetricProvider(ctx, r, config)
	if err != nil {
		return err
	}
	otel.SetMeterProvider(meterProvider)

	active.mu.Lock()
	defer active.mu.Unlock()
	active.tracerProvider = tracerProvider
	active.meterProvider = meterProvider
	return nil
}

func Shutdown(ctx context.Context) error {
	active.mu.Lock()
	tracerProvider := active.tracerProvider
	meterProvider := active.meterProvider
	active.tracerProvider = nil
	active.meterProvider = nil
	active.mu.Unlock()

	errlist := []error{}
	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			errlist = append(errlist, err)
		}
	}
	if meterProvider != nil {
		if err := meterProvider.Shutdown(ctx); err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}
