package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldhash/internal/prof"
)

func setupProfiling(cmd *cobra.Command) (func(), error) {
	pf := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPUProfile, err = pf.GetString("cpuprofile"); err != nil {
		return nil, err
	}
	if opts.MemProfile, err = pf.GetString("memprofile"); err != nil {
		return nil, err
	}
	if opts.RuntimeTrace, err = pf.GetString("runtime-trace"); err != nil {
		return nil, err
	}
	if !opts.Enabled() {
		return func() {}, nil
	}
	session, err := prof.Start(opts)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", err)
		}
	}, nil
}
