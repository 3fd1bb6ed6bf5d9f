package keel

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// ExceptionFunc writes a response for an error returned by a handler. Returning
// a non-nil error passes that error on to the next matching handler.
type ExceptionFunc func(rc RequestContext, err error) error

// ExceptionHandler maps handler errors to responses
type ExceptionHandler struct {
	match  func(err error) bool
	handle ExceptionFunc
}

// CatchStatus handles errors carrying the given HTTP status code. Errors that
// are not *HttpError count as 500.
func CatchStatus(code int, fn ExceptionFunc) ExceptionHandler {
	return ExceptionHandler{
		match:  func(err error) bool { return StatusCodeOf(err) == code },
		handle: fn,
	}
}

// CatchError handles errors matching target type T with errors.As
func CatchError[T error](fn func(rc RequestContext, err T) error) ExceptionHandler {
	return ExceptionHandler{
		match: func(err error) bool {
			var target T
			return errors.As(err, &target)
		},
		handle: func(rc RequestContext, err error) error {
			var target T
			errors.As(err, &target)
			return fn(rc, target)
		},
	}
}

// CatchAll handles every error
func CatchAll(fn ExceptionFunc) ExceptionHandler {
	return ExceptionHandler{match: func(error) bool { return true }, handle: fn}
}

// Exceptions registers exception handlers on a module
func Exceptions(handlers ...ExceptionHandler) ModuleOption {
	return func(m *ModuleMetadata) {
		m.ExceptionHandlers = append(m.ExceptionHandlers, handlers...)
	}
}

// exceptionMiddleware resolves handler errors with the registered handlers and
// falls back to a JSON error body.
func exceptionMiddleware(handlers []ExceptionHandler, log *zap.Logger) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(rc RequestContext) error {
			err := next(rc)
			if err == nil {
				return nil
			}
			for _, h := range handlers {
				if h.match == nil || h.handle == nil || !h.match(err) {
					continue
				}
				herr := h.handle(rc, err)
				if herr == nil {
					return nil
				}
				err = herr
			}
			return writeDefaultError(rc, err, log)
		}
	}
}

func writeDefaultError(rc RequestContext, err error, log *zap.Logger) error {
	status := StatusCodeOf(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", rc.Method()),
			zap.String("path", rc.Path()),
			zap.Int("status", status),
			zap.Error(err))
	}
	if rc.Response().Written() {
		return nil
	}

	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return rc.Response().JSON(httpErr.StatusCode, httpErr)
	}
	return rc.Response().JSON(http.StatusInternalServerError, NewHttpError(http.StatusInternalServerError, ""))
}
