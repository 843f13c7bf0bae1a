package main

import (
	"fmt"
	"os"
	"strings"
)

// switchMode is the auto|on|off value shared by --ui and --color.
type switchMode uint8

const (
	modeAuto switchMode = iota
	modeOn
	modeOff
)

func parseSwitch(flag, value string) (switchMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return modeAuto, nil
	case "on", "always":
		return modeOn, nil
	case "off", "never":
		return modeOff, nil
	}
	return modeAuto, fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
}

// resolve folds auto into the answer of detect.
func (m switchMode) resolve(detect func() bool) bool {
	switch m {
	case modeOn:
		return true
	case modeOff:
		return false
	}
	return detect()
}

// shouldUseTUI: quiet and JSON output never get the progress view.
func shouldUseTUI(mode switchMode, quiet bool, format string) bool {
	if quiet || format == "json" {
		return false
	}
	return mode.resolve(func() bool {
		return isTerminal(os.Stdout) && isTerminal(os.Stdin)
	})
}
