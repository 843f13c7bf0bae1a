package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/fatih/color"

	"fieldhash/internal/buildpipeline"
	"fieldhash/internal/fingerprint"
)

var (
	warnColor   = color.New(color.FgYellow, color.Bold)
	digestColor = color.New(color.FgCyan)
	dimColor    = color.New(color.Faint)
	changeColor = map[buildpipeline.Change]*color.Color{
		buildpipeline.ChangeNew:       color.New(color.FgBlue, color.Bold),
		buildpipeline.ChangeChanged:   color.New(color.FgYellow, color.Bold),
		buildpipeline.ChangeUnchanged: color.New(color.FgGreen),
	}
)

func readFormat(value string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(value)); f {
	case "text", "json":
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q (must be text or json)", value)
}

func digestText(d fingerprint.Digest) string {
	if d.IsAbsent() {
		return dimColor.Sprint("(absent)")
	}
	return digestColor.Sprint(string(d))
}

func writeFingerprintText(out io.Writer, res buildpipeline.Result, withFields bool) {
	for _, t := range res.Targets {
		fmt.Fprintf(out, "%s  %s\n", digestText(t.Fingerprint), t.Address)
		if !withFields {
			continue
		}
		for _, key := range slices.Sorted(maps.Keys(t.Fields)) {
			fmt.Fprintf(out, "    %s  %s\n", digestText(t.Fields[key]), key)
		}
	}
	fmt.Fprintf(out, "build key: %s\n", digestText(res.BuildKey))
}

func writeStatusText(out io.Writer, res buildpipeline.Result) {
	for _, t := range res.Targets {
		label := changeColor[t.Change].Sprintf("%-9s", t.Change)
		line := fmt.Sprintf("%s %s", label, t.Address)
		if t.Change == buildpipeline.ChangeChanged && len(t.ChangedFields) > 0 {
			line += dimColor.Sprintf(" (%s)", strings.Join(t.ChangedFields, ", "))
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "%d new, %d changed, %d unchanged\n", res.Counts.New, res.Counts.Changed, res.Counts.Unchanged)
}

type jsonTarget struct {
	Address       string            `json:"address"`
	Kind          string            `json:"kind"`
	Fingerprint   *string           `json:"fingerprint"`
	Change        string            `json:"change,omitempty"`
	Previous      string            `json:"previous,omitempty"`
	ChangedFields []string          `json:"changed_fields,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
	Stored        bool              `json:"stored,omitempty"`
}

type jsonReport struct {
	Project  string       `json:"project"`
	BuildKey string       `json:"build_key"`
	Targets  []jsonTarget `json:"targets"`
	Counts   *jsonCounts  `json:"counts,omitempty"`
}

type jsonCounts struct {
	New       uint32 `json:"new"`
	Changed   uint32 `json:"changed"`
	Unchanged uint32 `json:"unchanged"`
}

// writeJSON renders res; absent fingerprints become null.
func writeJSON(out io.Writer, projectName string, res buildpipeline.Result, withFields, withStatus bool) error {
	report := jsonReport{
		Project:  projectName,
		BuildKey: string(res.BuildKey),
		Targets:  make([]jsonTarget, 0, len(res.Targets)),
	}
	for _, t := range res.Targets {
		jt := jsonTarget{Address: t.Address, Kind: t.Kind}
		if !t.Fingerprint.IsAbsent() {
			fp := string(t.Fingerprint)
			jt.Fingerprint = &fp
		}
		if withFields {
			jt.Fields = make(map[string]string, len(t.Fields))
			for k, d := range t.Fields {
				jt.Fields[k] = string(d)
			}
		}
		if withStatus {
			jt.Change = string(t.Change)
			jt.Previous = string(t.Previous)
			jt.ChangedFields = t.ChangedFields
		}
		jt.Stored = t.Stored
		report.Targets = append(report.Targets, jt)
	}
	if withStatus {
		report.Counts = &jsonCounts{res.Counts.New, res.Counts.Changed, res.Counts.Unchanged}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
