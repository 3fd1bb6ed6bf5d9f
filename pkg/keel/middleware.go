package keel

import (
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// RequestIDHeader carries the request id on requests and responses
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the RequestContext key holding the request id
	RequestIDKey = "request_id"

	tracerName = "github.com/toyz/keel"
)

// RequestIDMiddleware reuses an incoming X-Request-ID or generates one
func RequestIDMiddleware() MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(rc RequestContext) error {
			id := rc.Request().Header(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			rc.Set(RequestIDKey, id)
			rc.Response().SetHeader(RequestIDHeader, id)
			return next(rc)
		}
	}
}

// RequestID returns the id assigned by RequestIDMiddleware
func RequestID(rc RequestContext) string {
	id, _ := rc.Get(RequestIDKey).(string)
	return id
}

// appContextMiddleware makes the application and the matched route reachable from the request
func appContextMiddleware(app *App, route RouteInfo) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(rc RequestContext) error {
			rc.Set(requestAppKey, app)
			rc.Set(requestRouteKey, route)
			rc.SetContext(WithApp(rc.Context(), app))
			return next(rc)
		}
	}
}

// TracingMiddleware starts a server span per request using the global tracer provider
func TracingMiddleware(route RouteInfo) MiddlewareFunc {
	tracer := otel.Tracer(tracerName)
	spanName := route.Method + " " + route.Path.Raw()
	return func(next HandlerFunc) HandlerFunc {
		return func(rc RequestContext) error {
			ctx, span := tracer.Start(rc.Context(), spanName,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", rc.Method()),
					attribute.String("http.route", route.Path.Raw()),
					attribute.String("url.path", rc.Path()),
					attribute.String("keel.module", route.Module),
				))
			defer span.End()
			if id := RequestID(rc); id != "" {
				span.SetAttributes(attribute.String("keel.request_id", id))
			}

			rc.SetContext(ctx)
			err := next(rc)
			status := rc.Response().Status()
			if err != nil {
				status = StatusCodeOf(err)
				span.RecordError(err)
			}
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			return err
		}
	}
}
