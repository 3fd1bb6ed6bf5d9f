package keel_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/keel/pkg/keel"
	"github.com/toyz/keel/pkg/keel/keeltest"
)

func TestTypedRouteParams(t *testing.T) {
	var calls int
	echoParam := func(name string) keel.HandlerFunc {
		return func(rc keel.RequestContext) error {
			calls++
			return rc.Response().String(http.StatusOK, rc.Param(name))
		}
	}

	api := keel.NewRouter("/p")
	api.Get("/int/{v:int}", echoParam("v"))
	api.Get("/float/{v:float64}", echoParam("v"))
	api.Get("/double/{v:double}", echoParam("v"))
	api.Get("/float32/{v:float32}", echoParam("v"))
	api.Get("/uuid/{v:uuid.UUID}", echoParam("v"))
	api.Get("/UUID/{v:UUID}", echoParam("v"))
	api.Get("/string/{v:string}", echoParam("v"))
	api.Get("/any/{v}", echoParam("v"))
	app := keeltest.New(t, keel.NewModule("app", keel.Routers(api)))

	tests := []struct {
		path   string
		status int
	}{
		{"/p/int/42", http.StatusOK},
		{"/p/int/-7", http.StatusOK},
		{"/p/int/4.2", http.StatusBadRequest},
		{"/p/int/abc", http.StatusBadRequest},
		{"/p/float/4.2", http.StatusOK},
		{"/p/float/nope", http.StatusBadRequest},
		{"/p/double/1e3", http.StatusOK},
		{"/p/float32/0.5", http.StatusOK},
		{"/p/float32/1e39", http.StatusBadRequest},
		{"/p/uuid/6f1c1a2e-5d4b-4c3a-9e8f-0a1b2c3d4e5f", http.StatusOK},
		{"/p/uuid/6f1c1a2e", http.StatusBadRequest},
		{"/p/UUID/not-a-uuid", http.StatusBadRequest},
		{"/p/string/anything", http.StatusOK},
		{"/p/any/anything", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			before := calls
			rec := app.Get(tt.path)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				assert.Equal(t, before, calls, "handler must not run")
				var httpErr keel.HttpError
				keeltest.DecodeJSON(t, rec, &httpErr)
				assert.Equal(t, `invalid path parameter "v"`, httpErr.Message)
				assert.NotNil(t, httpErr.Details)
			}
		})
	}
}

func TestTypedRouteParams_UnknownType(t *testing.T) {
	api := keel.NewRouter("/")
	api.Get("/users/{id:integer}", func(rc keel.RequestContext) (any, error) { return nil, nil })
	_, err := keeltest.Build(t, keel.NewModule("app", keel.Routers(api)))
	assert.ErrorIs(t, err, keel.ErrInvalidRouteSpec)
}

func TestIsParamType(t *testing.T) {
	for _, typ := range []string{"", "int", "string", "float", "double", "float32", "float64", "uuid", "UUID", "uuid.UUID"} {
		assert.True(t, keel.IsParamType(typ), typ)
	}
	assert.False(t, keel.IsParamType("integer"))
	assert.Contains(t, keel.ParamTypes(), "uuid.UUID")
}
