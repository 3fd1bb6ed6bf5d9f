package keel_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/toyz/keel/pkg/keel"
	"github.com/toyz/keel/pkg/keel/keeltest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = provider.Shutdown(t.Context())
	})
	return recorder
}

func spanAttributes(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestTracingMiddleware(t *testing.T) {
	recorder := recordSpans(t)

	var sawSpan bool
	api := keel.NewRouter("/")
	api.Get("/orders/{id:int}", func(rc keel.RequestContext) (any, error) {
		sawSpan = trace.SpanFromContext(rc.Context()).SpanContext().IsValid()
		return map[string]string{"id": rc.Param("id")}, nil
	})
	api.Get("/orders/broken", func(rc keel.RequestContext) (any, error) {
		return nil, keel.ErrInternalServerError("ledger offline")
	})
	app := keeltest.New(t, keel.NewModule("shop", keel.Routers(api)))

	req := httptest.NewRequest(http.MethodGet, "/orders/12", nil)
	req.Header.Set(keel.RequestIDHeader, "trace-1")
	rec := app.Do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sawSpan)

	rec = app.Get("/orders/broken")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	ok := spans[0]
	assert.Equal(t, "GET /orders/{id:int}", ok.Name())
	assert.Equal(t, trace.SpanKindServer, ok.SpanKind())
	attrs := spanAttributes(ok)
	assert.Equal(t, "/orders/{id:int}", attrs["http.route"].AsString())
	assert.Equal(t, "/orders/12", attrs["url.path"].AsString())
	assert.Equal(t, "shop", attrs["keel.module"].AsString())
	assert.Equal(t, "trace-1", attrs["keel.request_id"].AsString())
	assert.Equal(t, int64(http.StatusOK), attrs["http.response.status_code"].AsInt64())
	assert.Equal(t, codes.Unset, ok.Status().Code)

	failed := spans[1]
	assert.Equal(t, "GET /orders/broken", failed.Name())
	assert.Equal(t, int64(http.StatusInternalServerError), spanAttributes(failed)["http.response.status_code"].AsInt64())
	assert.Equal(t, codes.Error, failed.Status().Code)
}

func TestRequestIDMiddleware_Generates(t *testing.T) {
	api := keel.NewRouter("/")
	api.Get("/", func(rc keel.RequestContext) (string, error) {
		return keel.RequestID(rc), nil
	})
	app := keeltest.New(t, keel.NewModule("app", keel.Routers(api)))

	first := app.Get("/")
	second := app.Get("/")
	require.Equal(t, http.StatusOK, first.Code)

	id := first.Header().Get(keel.RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, first.Body.String())
	assert.NotEqual(t, id, second.Header().Get(keel.RequestIDHeader))
}
