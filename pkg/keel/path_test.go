package keel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutePath_Parts(t *testing.T) {
	tests := []struct {
		name     string
		path     RoutePath
		expected []RoutePathPart
	}{
		{
			name:     "static only",
			path:     "/users",
			expected: []RoutePathPart{{Type: StaticPart, Value: "/users"}},
		},
		{
			name: "typed parameter",
			path: "/users/{id:int}",
			expected: []RoutePathPart{
				{Type: StaticPart, Value: "/users/"},
				{Type: ParameterPart, Value: "id", ParamType: "int"},
			},
		},
		{
			name: "untyped parameter and suffix",
			path: "/posts/{slug}/comments",
			expected: []RoutePathPart{
				{Type: StaticPart, Value: "/posts/"},
				{Type: ParameterPart, Value: "slug"},
				{Type: StaticPart, Value: "/comments"},
			},
		},
		{
			name: "wildcard",
			path: "/static/{*}",
			expected: []RoutePathPart{
				{Type: StaticPart, Value: "/static/"},
				{Type: WildcardPart, Value: "*"},
			},
		},
		{
			name: "unterminated brace stays static",
			path: "/a/{id",
			expected: []RoutePathPart{
				{Type: StaticPart, Value: "/a/"},
				{Type: StaticPart, Value: "{id"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.path.Parts())
		})
	}
}

func TestRoutePath_Params(t *testing.T) {
	path := RoutePath("/orgs/{org}/users/{id:int}")
	assert.Equal(t, map[string]string{"org": "", "id": "int"}, path.Params())
}

func TestRoutePath_Build(t *testing.T) {
	path := RoutePath("/orgs/{org}/users/{id:int}")

	built, missing := path.Build(map[string]string{"org": "acme", "id": "7"})
	assert.Equal(t, "/orgs/acme/users/7", built)
	assert.Empty(t, missing)

	_, missing = path.Build(map[string]string{"org": "acme"})
	assert.Equal(t, []string{"id"}, missing)

	built, _ = RoutePath("/static/{*}").Build(map[string]string{"*": "css/site.css"})
	assert.Equal(t, "/static/css/site.css", built)
}

func TestJoinPaths(t *testing.T) {
	tests := []struct {
		prefix, path, expected string
	}{
		{"", "", "/"},
		{"", "/", "/"},
		{"/api", "/", "/api"},
		{"/api/", "/users", "/api/users"},
		{"/api", "users", "/api/users"},
		{"", "/users", "/users"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, JoinPaths(tt.prefix, tt.path), "JoinPaths(%q, %q)", tt.prefix, tt.path)
	}
}
