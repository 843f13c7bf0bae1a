package buildpipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"fieldhash/internal/fingerprint"
	"fieldhash/internal/fpcache"
	"fieldhash/internal/project"
	"fieldhash/internal/target"
	"fieldhash/internal/trace"
)

func buildTargets(t *testing.T, specs ...project.TargetSpec) []*target.Target {
	t.Helper()
	targets, _, err := target.Build(specs, target.Options{})
	if err != nil {
		t.Fatalf("target.Build: %v", err)
	}
	return targets
}

func sampleSpecs(zipSafe bool) []project.TargetSpec {
	return []project.TargetSpec{
		{
			Address:      "src/b:lib",
			Kind:         "python_library",
			Dependencies: []string{"src/a:lib"},
			Primitives:   map[string]any{"zip_safe": zipSafe},
		},
		{
			Address: "src/a:lib",
			Kind:    "python_library",
			Sets:    map[string][]any{"sources": {"a.py"}},
		},
		{Address: "src/empty:lib"},
	}
}

func TestFingerprint_NoCache(t *testing.T) {
	targets := buildTargets(t, sampleSpecs(true)...)
	sink := &RecordingSink{}
	res, err := Fingerprint(context.Background(), &Request{Targets: targets, Jobs: 2, Progress: sink})
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if len(res.Targets) != 3 {
		t.Fatalf("targets = %d", len(res.Targets))
	}
	if res.Targets[0].Address != "src/a:lib" || res.Targets[2].Address != "src/empty:lib" {
		t.Fatalf("results not sorted: %s, %s", res.Targets[0].Address, res.Targets[2].Address)
	}
	if res.Counts.New != 3 || res.Count(ChangeNew) != 3 {
		t.Fatalf("counts = %+v", res.Counts)
	}
	if !res.Targets[2].Fingerprint.IsAbsent() {
		t.Fatal("empty target must have an absent fingerprint")
	}
	want := fingerprint.Combine(res.Targets[0].Fingerprint, res.Targets[1].Fingerprint)
	if res.BuildKey != want {
		t.Fatalf("BuildKey = %s, want %s", res.BuildKey, want)
	}
	if !res.Timings.Has(StageFingerprint) {
		t.Fatal("missing fingerprint timing")
	}

	var queued, done int
	for _, ev := range sink.Events() {
		switch {
		case ev.Target != "" && ev.Status == StatusQueued:
			queued++
		case ev.Target != "" && ev.Status == StatusDone:
			done++
			if ev.Change != ChangeNew {
				t.Fatalf("done event change = %q", ev.Change)
			}
		}
	}
	if queued != 3 || done != 3 {
		t.Fatalf("queued=%d done=%d", queued, done)
	}
}

func TestFingerprint_BuildKeyIgnoresOrder(t *testing.T) {
	specs := sampleSpecs(true)
	a, err := Fingerprint(context.Background(), &Request{Targets: buildTargets(t, specs...)})
	if err != nil {
		t.Fatal(err)
	}
	reversed := []project.TargetSpec{specs[2], specs[1], specs[0]}
	b, err := Fingerprint(context.Background(), &Request{Targets: buildTargets(t, reversed...), Jobs: 1})
	if err != nil {
		t.Fatal(err)
	}
	if a.BuildKey != b.BuildKey {
		t.Fatal("build key depends on target order")
	}
}

func TestFingerprint_StatusAgainstCache(t *testing.T) {
	cache, err := fpcache.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	first, err := Fingerprint(ctx, &Request{Targets: buildTargets(t, sampleSpecs(true)...), Cache: cache, Write: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range first.Targets {
		if r.Change != ChangeNew || !r.Stored {
			t.Fatalf("%s: change=%s stored=%v", r.Address, r.Change, r.Stored)
		}
	}

	second, err := Fingerprint(ctx, &Request{Targets: buildTargets(t, sampleSpecs(true)...), Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	if second.Counts.Unchanged != 3 {
		t.Fatalf("counts = %+v", second.Counts)
	}

	third, err := Fingerprint(ctx, &Request{Targets: buildTargets(t, sampleSpecs(false)...), Cache: cache, Write: true})
	if err != nil {
		t.Fatal(err)
	}
	if third.Counts.Changed != 1 || third.Counts.Unchanged != 2 {
		t.Fatalf("counts = %+v", third.Counts)
	}
	var changed TargetResult
	for _, r := range third.Targets {
		if r.Change == ChangeChanged {
			changed = r
		}
	}
	if changed.Address != "src/b:lib" || strings.Join(changed.ChangedFields, ",") != "zip_safe" {
		t.Fatalf("changed = %+v", changed)
	}
	if changed.Previous == changed.Fingerprint || !changed.Stored {
		t.Fatalf("changed target not stored: %+v", changed)
	}

	rec, ok, err := cache.Get("src/b:lib")
	if err != nil || !ok || rec.Fingerprint != string(changed.Fingerprint) {
		t.Fatalf("stored record = %+v ok=%v err=%v", rec, ok, err)
	}
}

func TestDiffFields(t *testing.T) {
	prev := map[string]string{"a": "1", "b": "2", "gone": "3"}
	now := map[string]fingerprint.Digest{"a": "1", "b": "9", "added": "4"}
	got := strings.Join(diffFields(prev, now), ",")
	if got != "added,b,gone" {
		t.Fatalf("diff = %s", got)
	}
}

func TestFingerprint_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := Fingerprint(ctx, nil); err == nil {
		t.Fatal("nil request must fail")
	}
	if _, err := Fingerprint(ctx, &Request{Write: true}); err == nil {
		t.Fatal("write without cache must fail")
	}
	targets := buildTargets(t, project.TargetSpec{Address: "a:b"})
	if _, err := Fingerprint(ctx, &Request{Targets: []*target.Target{targets[0], targets[0]}}); err == nil {
		t.Fatal("duplicate targets must fail")
	}
}

func TestFingerprint_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &RecordingSink{}
	_, err := Fingerprint(ctx, &Request{Targets: buildTargets(t, sampleSpecs(true)...), Progress: sink})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	events := sink.Events()
	if last := events[len(events)-1]; last.Status != StatusError || last.Target != "" {
		t.Fatalf("last event = %+v", last)
	}
}

func TestFingerprint_Empty(t *testing.T) {
	res, err := Fingerprint(context.Background(), &Request{})
	if err != nil {
		t.Fatal(err)
	}
	if res.BuildKey != fingerprint.Empty {
		t.Fatalf("BuildKey = %s, want Empty", res.BuildKey)
	}
}

func TestFingerprint_Traces(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewStreamTracer(&buf, trace.LevelDebug, trace.FormatText)
	ctx := trace.WithTracer(context.Background(), tr)
	if _, err := Fingerprint(ctx, &Request{Targets: buildTargets(t, sampleSpecs(true)...)}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"→ fingerprint", "target:src/a:lib", "field:sources", "field:zip_safe"} {
		if !strings.Contains(out, want) {
			t.Fatalf("trace missing %q:\n%s", want, out)
		}
	}
}

func TestChannelSink(t *testing.T) {
	ch := make(chan Event, 1)
	ChannelSink{Ch: ch}.OnEvent(Event{Target: "x"})
	if ev := <-ch; ev.Target != "x" {
		t.Fatalf("event = %+v", ev)
	}
	ChannelSink{}.OnEvent(Event{})
}
