// Package prof wires Go runtime profiling into CLI runs.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	rtrace "runtime/trace"
)

// Options names the output files; empty paths disable that profile.
type Options struct {
	CPUProfile   string
	MemProfile   string
	RuntimeTrace string
}

func (o Options) Enabled() bool {
	return o.CPUProfile != "" || o.MemProfile != "" || o.RuntimeTrace != ""
}

// Session is an active profiling run. Stop must be called once.
type Session struct {
	cpu     *os.File
	tracer  *os.File
	memPath string
}

// Start begins the requested profiles. On error nothing stays active.
func Start(opts Options) (*Session, error) {
	s := &Session{memPath: opts.MemProfile}
	if opts.CPUProfile != "" {
		f, err := os.Create(opts.CPUProfile)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		s.cpu = f
	}
	if opts.RuntimeTrace != "" {
		f, err := os.Create(opts.RuntimeTrace)
		if err == nil {
			if err = rtrace.Start(f); err != nil {
				_ = f.Close()
			}
		}
		if err != nil {
			_ = s.Stop()
			return nil, fmt.Errorf("runtime trace: %w", err)
		}
		s.tracer = f
	}
	return s, nil
}

// Stop ends CPU profiling and tracing and writes the heap profile.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.cpu != nil {
		pprof.StopCPUProfile()
		errs = append(errs, s.cpu.Close())
		s.cpu = nil
	}
	if s.tracer != nil {
		rtrace.Stop()
		errs = append(errs, s.tracer.Close())
		s.tracer = nil
	}
	if s.memPath != "" {
		errs = append(errs, writeHeap(s.memPath))
		s.memPath = ""
	}
	return errors.Join(errs...)
}

func writeHeap(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mem profile: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
