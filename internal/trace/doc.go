// Package trace records what the kestrel tool does while it checks,
// evaluates and renders scope scripts or runs container benchmarks.
//
// # Usage
//
//	kestrel scopes --trace=- --trace-level=detail testdata/nested.toml
//
// # Tracers
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: writes each event immediately (file or stderr)
//   - RingTracer: keeps the last N events in memory, dumped on failure
//   - MultiTracer: fans out to several tracers
//
// # Levels and tiers
//
// Every event belongs to a tier: TierDriver (a CLI command), TierPass
// (check/eval/render), TierScript (one script file) or TierTable (one scope
// map). The level decides which tiers are emitted:
//
//   - LevelOff: nothing
//   - LevelError: failure dumps only
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: plus per-script events
//   - LevelDebug: plus per-table events carrying map statistics
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.TierPass, "eval", 0)
//	defer span.End("")
package trace
