package keel

import "net/http"

// Response represents an HTTP response with custom status code, headers and body.
// Handlers hand it to Respond when they need to control more than the JSON body.
//
// Example usage:
//
//	func (c *UserController) create(ctx keel.RequestContext) error {
//	    user := c.users.Create(...)
//	    return keel.Respond(ctx, keel.Created(user).WithHeader("Location", "/users/1"))
//	}
type Response struct {
	// StatusCode is the HTTP status code to return (e.g., 200, 201, 404, 500)
	StatusCode int `json:"-"`

	// Body is the response body that will be JSON-encoded and sent to the client
	Body interface{} `json:"body,omitempty"`

	Headers map[string]string `json:"-"`
	Cookies []Cookie          `json:"-"`
}

// NewResponse creates a new Response with the specified status code and body
func NewResponse(statusCode int, body interface{}) *Response {
	return &Response{
		StatusCode: statusCode,
		Body:       body,
	}
}

// WithHeader adds a response header
func (r *Response) WithHeader(key, value string) *Response {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

// WithCookie adds a cookie to the response
func (r *Response) WithCookie(cookie Cookie) *Response {
	r.Cookies = append(r.Cookies, cookie)
	return r
}

// OK creates a 200 OK response with the given body
func OK(body interface{}) *Response {
	return NewResponse(http.StatusOK, body)
}

// Created creates a 201 Created response with the given body
func Created(body interface{}) *Response {
	return NewResponse(http.StatusCreated, body)
}

// NoContent creates a 204 No Content response
func NoContent() *Response {
	return NewResponse(http.StatusNoContent, nil)
}

// Respond writes r to the request's response
func Respond(ctx RequestContext, r *Response) error {
	res := ctx.Response()
	for k, v := range r.Headers {
		res.SetHeader(k, v)
	}
	for _, c := range r.Cookies {
		res.SetCookie(c)
	}
	if r.Body == nil {
		return res.Blob(r.StatusCode, "application/json", nil)
	}
	return res.JSON(r.StatusCode, r.Body)
}
