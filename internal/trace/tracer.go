package trace

import (
	"fmt"
	"io"
	"strings"
)

// Tracer receives events. Emit must be safe for concurrent use: scripts and
// bench workloads run in parallel and share one tracer.
type Tracer interface {
	Emit(ev *Event)
	// Close flushes what is buffered and releases the output.
	Close() error
	Level() Level
}

// On reports whether t records anything at all.
func On(t Tracer) bool {
	return t != nil && t.Level() > LevelOff
}

// Mode selects where events go. Stream and ring are independent bits.
type Mode uint8

const (
	ModeStream Mode = 1 << iota // written as they happen
	ModeRing                    // last N kept for the failure dump
	ModeBoth   = ModeStream | ModeRing
)

var modeNames = [...]string{ModeStream: "stream", ModeRing: "ring", ModeBoth: "both"}

func (m Mode) String() string {
	if int(m) < len(modeNames) && modeNames[m] != "" {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode maps a --trace-mode value to a Mode.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name != "" && name == s {
			return Mode(m), nil
		}
	}
	return 0, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
}

// Config describes the tracer built for one kestrel invocation.
type Config struct {
	Level Level
	Mode  Mode
	// Format of the stream; FormatAuto looks at OutputPath.
	Format Format
	// Output wins over OutputPath; "-" or "" in OutputPath means stderr.
	Output     io.Writer
	OutputPath string
	RingSize   int
}

// New builds the stream and/or ring sink cfg asks for. With both, the
// result is a *MultiTracer whose Ring() backs the failure dump.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	var sinks []Tracer
	if cfg.Mode&ModeStream != 0 {
		w, err := openStream(cfg.Output, cfg.OutputPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, NewStreamTracer(w, cfg.Level, cfg.Format.forPath(cfg.OutputPath)))
	}
	if cfg.Mode&ModeRing != 0 {
		sinks = append(sinks, NewRingTracer(cfg.RingSize, cfg.Level))
	}
	switch len(sinks) {
	case 0:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	case 1:
		return sinks[0], nil
	}
	return NewMultiTracer(cfg.Level, sinks...), nil
}
