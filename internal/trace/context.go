package trace

import "context"

type ctxKey struct{}

// ctxValue travels as one context value so the parent span stays tied to
// the tracer it belongs to.
type ctxValue struct {
	tracer Tracer
	parent uint64
}

func fromCtx(ctx context.Context) ctxValue {
	if ctx == nil {
		return ctxValue{tracer: Nop}
	}
	if v, ok := ctx.Value(ctxKey{}).(ctxValue); ok {
		return v
	}
	return ctxValue{tracer: Nop}
}

// FromContext returns the tracer attached to ctx, Nop when none is.
func FromContext(ctx context.Context) Tracer {
	return fromCtx(ctx).tracer
}

// WithTracer attaches t to ctx and resets the parent span.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, ctxValue{tracer: t})
}

// ParentFromContext returns the span ID new spans nest under, 0 for none.
func ParentFromContext(ctx context.Context) uint64 {
	return fromCtx(ctx).parent
}

// WithParent nests spans started from the returned context under span.
func WithParent(ctx context.Context, span *Span) context.Context {
	if span.ID() == 0 {
		return ctx
	}
	v := fromCtx(ctx)
	v.parent = span.ID()
	return context.WithValue(ctx, ctxKey{}, v)
}
