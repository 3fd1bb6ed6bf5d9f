package keel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRouteSpec(t *testing.T) {
	tests := []struct {
		spec    string
		methods []string
		path    RoutePath
	}{
		{"GET /users", []string{"GET"}, "/users"},
		{"get /users/{id:int}", []string{"GET"}, "/users/{id:int}"},
		{"GET,HEAD /", []string{"GET", "HEAD"}, "/"},
		{"POST|PUT /items", []string{"POST", "PUT"}, "/items"},
		{"GET , POST /items", []string{"GET", "POST"}, "/items"},
		{"DELETE", []string{"DELETE"}, "/"},
		{"GET,get /dup", []string{"GET"}, "/dup"},
		{"  PATCH /trim  ", []string{"PATCH"}, "/trim"},
		{"GET /files/{key:uuid}/{rev:float}", []string{"GET"}, "/files/{key:uuid}/{rev:float}"},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			spec, err := ParseRouteSpec(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.methods, spec.Methods)
			assert.Equal(t, tt.path, spec.Path)
		})
	}
}

func TestParseRouteSpec_Errors(t *testing.T) {
	for _, spec := range []string{
		"",
		"/users",
		"FETCH /users",
		"GET /users/{id",
		"GET /users/{}",
		"GET /a/{id}/b/{id}",
		"GET /users/{id:integer}",
		"GET /users/{id:time.Time}",
		"GET users",
	} {
		t.Run(spec, func(t *testing.T) {
			_, err := ParseRouteSpec(spec)
			assert.ErrorIs(t, err, ErrInvalidRouteSpec)
		})
	}
}
