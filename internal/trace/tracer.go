package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Tracer is the main interface for emitting trace events.
type Tracer interface {
	// Emit records a trace event. Must be goroutine-safe.
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	// Enabled returns true if tracing is active (Level > LevelOff).
	Enabled() bool
}

// StorageMode says where events go: written out, kept in memory, or both.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1
	ModeRing
	ModeBoth
)

var modeNames = map[StorageMode]string{
	ModeStream: "stream",
	ModeRing:   "ring",
	ModeBoth:   "both",
}

func (m StorageMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

func (m StorageMode) streams() bool { return m == ModeStream || m == ModeBoth }
func (m StorageMode) rings() bool   { return m == ModeRing || m == ModeBoth }

// ParseMode converts a --trace-mode value.
func ParseMode(s string) (StorageMode, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for mode, name := range modeNames {
		if name == want {
			return mode, nil
		}
	}
	return ModeRing, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
}

// DefaultRingSize is used when Config.RingSize is not positive.
const DefaultRingSize = 4096

type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format    // FormatAuto picks by OutputPath extension
	Output     io.Writer // for stream mode (if nil, use OutputPath)
	OutputPath string    // "-" or "" for stderr
	RingSize   int
	Heartbeat  time.Duration // 0 = disabled; started by the caller via StartHeartbeat
}

// New builds the tracer described by cfg. LevelOff yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if !cfg.Mode.streams() && !cfg.Mode.rings() {
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}
	if cfg.RingSize <= 0 {
		cfg.RingSize = DefaultRingSize
	}

	var tracers []Tracer
	if cfg.Mode.streams() {
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		tracers = append(tracers, NewStreamTracer(w, cfg.Level, outputFormat(cfg)))
	}
	if cfg.Mode.rings() {
		tracers = append(tracers, NewRingTracer(cfg.RingSize, cfg.Level))
	}
	if len(tracers) == 1 {
		return tracers[0], nil
	}
	return NewMultiTracer(cfg.Level, tracers...), nil
}

// outputFormat resolves FormatAuto from the output file extension.
func outputFormat(cfg Config) Format {
	if cfg.Format != FormatAuto {
		return cfg.Format
	}
	switch filepath.Ext(cfg.OutputPath) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	}
	return FormatText
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return nopCloser{os.Stderr}, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}

// nopCloser keeps Close from closing stderr.
type nopCloser struct{ io.Writer }
