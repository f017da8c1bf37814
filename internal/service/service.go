// Package service holds the application use cases. Each use case starts a
// span and counts its outcomes on the configured meter.
package service

import (
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrPartialSale means the sale is recorded but its stock movements were
	// not all applied. The sale is never rolled back.
	ErrPartialSale       = errors.New("sale recorded but stock adjustment incomplete")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
	ErrEmptyCart         = errors.New("cart is empty")
)

// Clock returns the current time
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func counter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		c, _ = noop.NewMeterProvider().Meter("noop").Int64Counter(name)
	}
	return c
}

func fail(span trace.Span, err error, msg string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
}

func result(ok bool) metric.AddOption {
	r := "success"
	if !ok {
		r = "failure"
	}
	return metric.WithAttributes(attribute.String("result", r))
}
