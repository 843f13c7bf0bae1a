package main

import (
	"github.com/spf13/cobra"

	"fieldhash/internal/buildpipeline"
	"fieldhash/internal/fpcache"
	"fieldhash/internal/observ"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [dir]",
		Short: "Show which targets changed since the last write",
		Long:  "Compare current target fingerprints with the stored records and report new, changed and unchanged targets.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStatus,
	}
	cmd.Flags().Bool("write", false, "update stored records after comparing")
	cmd.Flags().String("format", "text", "output format (text|json)")
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	opts, err := readGlobalOptions(cmd)
	if err != nil {
		return err
	}
	write, err := cmd.Flags().GetBool("write")
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
	cache, err := fpcache.Open(manifest.CacheDir())
	if err != nil {
		return err
	}

	req := buildpipeline.Request{Targets: targets, Cache: cache, Write: write, Jobs: opts.jobs}
	res, err := runPipeline(cmd.Context(), shouldUseTUI(opts.ui, opts.quiet, format), "status", req)
	recordStages(timer, res.Timings)
	if err != nil {
		dumpRing(cmd)
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		err = writeJSON(out, manifest.Config.Project.Name, res, false, true)
	} else {
		writeStatusText(out, res)
	}
	printTimings(cmd.ErrOrStderr(), opts, timer)
	return err
}
