// Package reqctx carries per-request identifiers (trace, tenant) through
// context so logging and repositories see them without explicit plumbing.
package reqctx

import (
	"context"

	"github.com/google/uuid"
)

// Trace contains request tracing information.
type Trace struct {
	TraceID   string
	RequestID string
}

type traceKey struct{}

// WithTrace adds Trace to context.
func WithTrace(ctx context.Context, trace *Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

// GetTrace returns Trace from context, or nil.
func GetTrace(ctx context.Context) *Trace {
	if v, ok := ctx.Value(traceKey{}).(*Trace); ok {
		return v
	}
	return nil
}

// NewTrace creates a Trace with generated IDs.
func NewTrace() *Trace {
	return &Trace{
		TraceID:   uuid.New().String(),
		RequestID: uuid.New().String(),
	}
}

type tenantKey struct{}

// WithTenant stamps the tenant id handling the current unit of work.
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// GetTenant returns the tenant id from context and whether it was set.
func GetTenant(ctx context.Context) (uuid.UUID, bool) {
	if v, ok := ctx.Value(tenantKey{}).(uuid.UUID); ok {
		return v, true
	}
	return uuid.Nil, false
}
