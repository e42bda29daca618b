// Package connector provides schemaforge.Connector implementations: an
// in-process Router and a Prometheus-instrumented wrapper.
package connector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/reoring/schemaforge"
)

// ErrNoRoute is returned for a (method, url) pair without a handler.
var ErrNoRoute = errors.New("connector: no route")

// ValidateFunc handles a remote validator call with the bound fields.
type ValidateFunc func(ctx context.Context, fields map[string]any) (schemaforge.Issues, error)

// SchemaFunc resolves a source sub-schema from the bound fields.
type SchemaFunc func(ctx context.Context, fields map[string]any) (*schemaforge.Node, error)

type route struct{ method, url string }

// Router dispatches connector calls to handlers registered per method and
// url. It is safe for concurrent use.
type Router struct {
	mu         sync.RWMutex
	validators map[route]ValidateFunc
	schemas    map[route]SchemaFunc
}

var _ schemaforge.Connector = (*Router)(nil)

func NewRouter() *Router {
	return &Router{validators: map[route]ValidateFunc{}, schemas: map[route]SchemaFunc{}}
}

// HandleValidate registers fn for validator bindings with method and url.
func (r *Router) HandleValidate(method, url string, fn ValidateFunc) *Router {
	r.mu.Lock()
	r.validators[route{method, url}] = fn
	r.mu.Unlock()
	return r
}

// HandleSchema registers fn for source bindings with method and url.
func (r *Router) HandleSchema(method, url string, fn SchemaFunc) *Router {
	r.mu.Lock()
	r.schemas[route{method, url}] = fn
	r.mu.Unlock()
	return r
}

func (r *Router) Validate(ctx context.Context, url, method string, fields map[string]any) (schemaforge.Issues, error) {
	r.mu.RLock()
	fn, ok := r.validators[route{method, url}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: validate %s %s", ErrNoRoute, method, url)
	}
	return fn(ctx, fields)
}

func (r *Router) ResolveSchema(ctx context.Context, url, method string, fields map[string]any) (*schemaforge.Node, error) {
	r.mu.RLock()
	fn, ok := r.schemas[route{method, url}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: schema %s %s", ErrNoRoute, method, url)
	}
	return fn(ctx, fields)
}
