package main

import (
	"github.com/spf13/cobra"

	"fieldhash/internal/buildpipeline"
	"fieldhash/internal/fpcache"
	"fieldhash/internal/observ"
)

func newFingerprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint [dir]",
		Short: "Print the fingerprint of every target",
		Long:  "Compute the fingerprint of every target in fieldhash.toml and the build key combining them.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFingerprint,
	}
	cmd.Flags().Bool("write", false, "store fingerprints in the cache")
	cmd.Flags().String("format", "text", "output format (text|json)")
	cmd.Flags().Bool("fields", false, "also print per-field digests")
	return cmd
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	opts, err := readGlobalOptions(cmd)
	if err != nil {
		return err
	}
	write, err := cmd.Flags().GetBool("write")
	if err != nil {
		return err
	}
	withFields, err := cmd.Flags().GetBool("fields")
	if err != nil {
		return err
	}
	formatValue, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format, err := readFormat(formatValue)
	if err != nil {
		return err
	}

	timer := observ.NewTimer()
	manifest, targets, err := loadProject(startDir(args), opts, timer, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	req := buildpipeline.Request{Targets: targets, Jobs: opts.jobs, Write: write}
	if write {
		if req.Cache, err = fpcache.Open(manifest.CacheDir()); err != nil {
			return err
		}
	}
	res, err := runPipeline(cmd.Context(), shouldUseTUI(opts.ui, opts.quiet, format), "fingerprint", req)
	recordStages(timer, res.Timings)
	if err != nil {
		dumpRing(cmd)
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		err = writeJSON(out, manifest.Config.Project.Name, res, withFields, false)
	} else {
		writeFingerprintText(out, res, withFields)
	}
	printTimings(cmd.ErrOrStderr(), opts, timer)
	return err
}

func recordStages(timer *observ.Timer, t buildpipeline.Timings) {
	for _, stage := range []buildpipeline.Stage{buildpipeline.StageFingerprint, buildpipeline.StageCompare, buildpipeline.StageStore} {
		if t.Has(stage) {
			timer.Record(string(stage), t.Duration(stage), "")
		}
	}
}
