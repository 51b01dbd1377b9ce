package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"kestrel/internal/trace"
)

// setupTracing inspects trace-related flags and attaches a tracer to the
// command context. The cleanup flushes and closes it.
func setupTracing(cmd *cobra.Command) (trace.Tracer, func(), error) {
	flags := cmd.Root().PersistentFlags()

	traceOutput, err := flags.GetString("trace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace level: %w", err)
	}
	// --trace without a level means "phase"
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(ctx, trace.Nop))
		return trace.Nop, func() {}, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     trace.ParseFormat(formatStr),
		OutputPath: traceOutput,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(ctx, tracer))

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}
	cleanup := func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}

// ringOf returns the in-memory ring behind t, if any.
func ringOf(t trace.Tracer) *trace.RingTracer {
	switch v := t.(type) {
	case *trace.RingTracer:
		return v
	case *trace.MultiTracer:
		return v.Ring()
	}
	return nil
}

// instrumented runs fn with profiling and tracing configured from the
// persistent flags, inside a driver-tier span named after the command.
// When fn fails and events were kept in a ring, the ring is dumped to stderr.
func instrumented(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	tracer, stopTracing, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer stopTracing()

	span := trace.Begin(tracer, trace.TierDriver, cmd.Name(), 0)
	runErr := fn(trace.WithSpan(cmd.Context(), span))
	if runErr != nil {
		span.End("error")
		if ring := ringOf(tracer); ring != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "trace: last events:")
			if err := ring.Dump(cmd.ErrOrStderr(), trace.FormatText); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
		return runErr
	}
	span.End("")
	return nil
}
