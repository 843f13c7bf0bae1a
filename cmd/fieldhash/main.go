// Package main implements the fieldhash CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fieldhash/internal/diag"
	"fieldhash/internal/version"
)

// newRootCmd builds the command tree. The returned finish func releases
// tracing and profiling resources and must run after Execute, even on error.
func newRootCmd() (*cobra.Command, func()) {
	var cleanup func()
	root := &cobra.Command{
		Use:           "fieldhash",
		Short:         "Content fingerprints for build target fields",
		Long:          `fieldhash computes stable fingerprints of build target payloads and tracks which targets changed.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := setupColor(cmd); err != nil {
				return err
			}
			stopProfiles, err := setupProfiling(cmd)
			if err != nil {
				return err
			}
			stopTrace, err := setupTracing(cmd)
			if err != nil {
				stopProfiles()
				return err
			}
			cleanup = func() {
				stopTrace()
				stopProfiles()
			}
			return nil
		},
	}

	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("jobs", 0, "max parallel targets (0=auto)")
	pf.String("ui", "auto", "progress UI mode (auto|on|off)")
	pf.String("trace", "", "trace output file (\"-\" for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "ring buffer capacity in events")
	pf.Duration("trace-heartbeat", 0, "heartbeat interval (0 disables)")
	pf.String("cpuprofile", "", "write a CPU profile to file")
	pf.String("memprofile", "", "write a heap profile to file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to file")

	root.AddCommand(newFingerprintCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newCleanCmd())
	root.AddCommand(newVersionCmd())
	finish := func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}
	return root, finish
}

func main() {
	root, finish := newRootCmd()
	err := root.Execute()
	finish()
	if err != nil {
		var ce *diag.ConfigError
		if errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// setupColor применяет --color к fatih/color.
func setupColor(cmd *cobra.Command) error {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	mode, err := parseSwitch("color", value)
	if err != nil {
		return err
	}
	color.NoColor = !mode.resolve(func() bool { return isTerminal(os.Stdout) })
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
