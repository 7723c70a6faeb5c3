package repository

import (
	"context"
	"net/http"
	"net/url"
)

// Requester performs one JSON exchange with the API. It returns the decoded
// body, which is either a map[string]any or a []any.
//
// Transport failures, non-2xx statuses and undecodable bodies are the
// requester's errors; repositories pass them through unchanged.
type Requester interface {
	RequestJSON(ctx context.Context, method, path string, query url.Values) (any, error)
}

// RequesterFunc adapts a function to the Requester interface.
type RequesterFunc func(ctx context.Context, method, path string, query url.Values) (any, error)

func (f RequesterFunc) RequestJSON(ctx context.Context, method, path string, query url.Values) (any, error) {
	return f(ctx, method, path, query)
}

// get is the only verb repositories use.
func get(ctx context.Context, r Requester, path string, query url.Values) (any, error) {
	return r.RequestJSON(ctx, http.MethodGet, path, query)
}
