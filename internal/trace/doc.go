// Package trace records what the compiler is doing: driver steps, passes,
// programs and individual functions.
//
// Enable it from the command line:
//
//	ilwasm build --trace=- --trace-level=detail prog.irmp
//
// Tracers:
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: writes each event as it happens
//   - RingTracer: keeps the last N events for post-mortem dumps
//   - MultiTracer: fans out to several tracers
//
// Levels select scopes: phase shows driver and pass boundaries, detail adds
// one span per program, debug adds one span per emitted function.
//
// Tracers travel through the pipeline in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span, ctx := trace.StartSpan(ctx, trace.ScopePass, "emit")
//	defer span.End("")
package trace
