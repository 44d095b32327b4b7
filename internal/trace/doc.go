// Package trace records what a testcdylib run is doing.
//
// The driver command and every cargo subprocess are spans; compilation units
// and raw cargo messages are point events nested under them. Tracing is off
// by default and then costs a single Enabled check per call site.
//
//	testcdylib build --trace=- --trace-level=detail
//	testcdylib permute --trace=run.ndjson --trace-mode=both --trace-heartbeat=10s
//
// Levels widen what is recorded: phase keeps the driver and cargo
// invocations, detail adds units, debug adds every decoded message. The
// error level pairs with --trace-mode=ring: units are kept in memory and
// the CLI dumps them to stderr only when a command fails.
//
// A tracer travels in the context next to the span new work should nest
// under:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "build", trace.ParentFromContext(ctx))
//	defer span.End("")
//	ctx = trace.WithParent(ctx, span)
package trace
