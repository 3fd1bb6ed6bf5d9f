package keel

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Query reads typed values from a request's query string. Malformed values
// are reported as 400 errors naming the offending parameter.
type Query struct {
	values url.Values
}

// QueryOf returns the query string of the request
func QueryOf(rc RequestContext) Query {
	return Query{values: url.Values(rc.QueryParams())}
}

// Get returns the first value of key
func (q Query) Get(key string) string {
	return q.values.Get(key)
}

// Default returns the first value of key, or def when it is missing or empty
func (q Query) Default(key, def string) string {
	if v := q.values.Get(key); v != "" {
		return v
	}
	return def
}

// All returns every value of key
func (q Query) All(key string) []string {
	return q.values[key]
}

// Has reports whether key is present, even with an empty value ("?draft")
func (q Query) Has(key string) bool {
	_, ok := q.values[key]
	return ok
}

// Int parses key as an integer
func (q Query) Int(key string, def int) (int, error) {
	v := q.values.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, invalidQuery(key, "integer", err)
	}
	return n, nil
}

// Bool parses key as a boolean. Besides strconv's forms it accepts yes/no and on/off.
func (q Query) Bool(key string, def bool) (bool, error) {
	v := strings.ToLower(q.values.Get(key))
	switch v {
	case "":
		return def, nil
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, invalidQuery(key, "boolean", err)
	}
	return b, nil
}

// Duration parses key with time.ParseDuration
func (q Query) Duration(key string, def time.Duration) (time.Duration, error) {
	v := q.values.Get(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, invalidQuery(key, "duration", err)
	}
	return d, nil
}

func invalidQuery(key, kind string, err error) *HttpError {
	e := ErrBadRequest("invalid query parameter " + strconv.Quote(key))
	e.Details = map[string]string{"param": key, "expected": kind}
	return e.WithInternal(err)
}
