package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldhash/internal/trace"
)

// setupTracing reads the trace flags, attaches a tracer to the command
// context and returns the cleanup to run after the command.
func setupTracing(cmd *cobra.Command) (func(), error) {
	pf := cmd.Root().PersistentFlags()
	output, err := pf.GetString("trace")
	if err != nil {
		return nil, err
	}
	levelStr, err := pf.GetString("trace-level")
	if err != nil {
		return nil, err
	}
	modeStr, err := pf.GetString("trace-mode")
	if err != nil {
		return nil, err
	}
	formatStr, err := pf.GetString("trace-format")
	if err != nil {
		return nil, err
	}
	ringSize, err := pf.GetInt("trace-ring-size")
	if err != nil {
		return nil, err
	}
	heartbeatInterval, err := pf.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, err
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	// --trace без уровня включает phase
	if level == trace.LevelOff && output != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: output,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	heartbeat := trace.StartHeartbeat(tracer, heartbeatInterval)

	return func() {
		heartbeat.Stop()
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}

// dumpRing writes the in-memory trace to stderr after a failure.
// Only ring mode needs it: stream modes have written everything already.
func dumpRing(cmd *cobra.Command) {
	ring, ok := trace.FromContext(cmd.Context()).(*trace.RingTracer)
	if !ok {
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "trace (last events):")
	_ = ring.Dump(cmd.ErrOrStderr(), trace.FormatText)
}
