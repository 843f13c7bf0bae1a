package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fieldhash/internal/diag"
	"fieldhash/internal/observ"
	"fieldhash/internal/project"
	"fieldhash/internal/target"
)

const noManifestMessage = "no " + project.ManifestName + " found\nrun fieldhash inside a project or pass its directory, e.g.:\n  fieldhash status path/to/project"

type globalOptions struct {
	quiet   bool
	timings bool
	jobs    int
	ui      switchMode
}

func readGlobalOptions(cmd *cobra.Command) (globalOptions, error) {
	pf := cmd.Root().PersistentFlags()
	var opts globalOptions
	var err error
	if opts.quiet, err = pf.GetBool("quiet"); err != nil {
		return opts, err
	}
	if opts.timings, err = pf.GetBool("timings"); err != nil {
		return opts, err
	}
	if opts.jobs, err = pf.GetInt("jobs"); err != nil {
		return opts, err
	}
	uiValue, err := pf.GetString("ui")
	if err != nil {
		return opts, err
	}
	opts.ui, err = parseSwitch("ui", uiValue)
	return opts, err
}

func startDir(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return "."
}

// loadProject reads the manifest and builds its targets. Warnings go to
// errOut unless quiet.
func loadProject(dir string, opts globalOptions, timer *observ.Timer, errOut io.Writer) (*project.Manifest, []*target.Target, error) {
	idx := timer.Begin("load")
	manifest, err := project.Load(dir)
	if err != nil {
		timer.End(idx, "failed")
		if errors.Is(err, project.ErrNoManifest) {
			return nil, nil, errors.New(noManifestMessage)
		}
		return nil, nil, err
	}
	targets, warnings, err := target.Build(manifest.Config.Targets, target.Options{})
	if err != nil {
		timer.End(idx, "failed")
		return nil, nil, fmt.Errorf("%s: %w", manifest.Path, err)
	}
	timer.End(idx, fmt.Sprintf("%d targets", len(targets)))

	if !opts.quiet {
		printWarnings(errOut, append(manifest.Warnings, warnings...))
	}
	return manifest, targets, nil
}

func printWarnings(out io.Writer, items []diag.Diagnostic) {
	for _, d := range items {
		fmt.Fprintf(out, "%s %s: %s\n", warnColor.Sprint("warning:"), d.Location(), d.Message)
	}
}

func printTimings(out io.Writer, opts globalOptions, timer *observ.Timer) {
	if opts.timings {
		fmt.Fprint(out, timer.Summary())
	}
}
