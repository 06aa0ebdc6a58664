// Package httpkit is what modules use to speak HTTP: response helpers, route sugar, the auth
// seam and the live stream writers. Modules import it instead of the platform http package.
package httpkit

import (
	"net/http"

	"unievents/internal/core/live"
	phttp "unievents/internal/platform/net/http"
)

type (
	// Response is the HTTP response type
	Response = phttp.Response
	// Handler is the platform handler type
	Handler = phttp.Handler
	// Router is a re-export of the platform router seam
	Router = phttp.Router
)

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// Created returns a 201 response
func Created(data any) Response { return phttp.Created(data) }

// NoContent returns a 204 response
func NoContent() Response { return phttp.NoContent() }

// Error returns a response that maps an error to status and envelope
func Error(err error) Response { return phttp.Error(err) }

// JSON decodes and validates a T body before calling fn
func JSON[T any](fn func(*http.Request, T) (any, error)) Handler { return phttp.JSONHandler(fn) }

// Call adapts a handler that takes no body
func Call(fn func(*http.Request) (any, error)) Handler { return phttp.JSONHandlerNoBody(fn) }

// Live serves the stream open returns as server-sent events. open runs with the request
// context, so the stream is torn down when the client leaves.
func Live[T any](open func(*http.Request) (<-chan live.Update[T], error)) Handler {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := open(r)
		if err != nil {
			phttp.RespondError(w, r, err)
			return
		}
		phttp.Stream(w, r, ch)
	}
}

// LiveValues is Live for streams that cannot fail
func LiveValues[T any](open func(*http.Request) (<-chan T, error)) Handler {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := open(r)
		if err != nil {
			phttp.RespondError(w, r, err)
			return
		}
		phttp.Values(w, r, ch)
	}
}
