// Package buildpipeline fingerprints targets concurrently and compares the
// results with the records kept in the fingerprint cache.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"runtime"
	"slices"
	"sort"
	"sync/atomic"
	"time"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"fieldhash/internal/fingerprint"
	"fieldhash/internal/fpcache"
	"fieldhash/internal/target"
	"fieldhash/internal/trace"
)

// Request configures one pipeline run.
type Request struct {
	Targets []*target.Target
	// Cache holds previous records. Nil means every target is new.
	Cache *fpcache.Cache
	// Write stores records of new and changed targets.
	Write    bool
	Jobs     int // <= 0 means GOMAXPROCS
	Progress ProgressSink
}

// Result captures per-target outcomes, sorted by address.
type Result struct {
	Targets []TargetResult
	// BuildKey combines every present target fingerprint.
	BuildKey fingerprint.Digest
	Counts   Counts
	Timings  Timings
}

// Fingerprint runs the pipeline. The first failing target cancels the rest.
func Fingerprint(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, errors.New("missing fingerprint request")
	}
	if req.Write && req.Cache == nil {
		return result, errors.New("write requested without a cache")
	}
	seen := make(map[string]struct{}, len(req.Targets))
	for i, t := range req.Targets {
		if t == nil {
			return result, fmt.Errorf("target %d is nil", i)
		}
		if _, dup := seen[t.Address]; dup {
			return result, fmt.Errorf("duplicate target %q", t.Address)
		}
		seen[t.Address] = struct{}{}
	}

	ctx, span := trace.Start(ctx, trace.ScopeDriver, "fingerprint")
	defer func() {
		span.WithExtra("targets", fmt.Sprint(len(req.Targets))).End(string(result.BuildKey))
	}()

	for _, t := range req.Targets {
		emit(req.Progress, Event{Target: t.Address, Stage: StageFingerprint, Status: StatusQueued})
	}

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]TargetResult, len(req.Targets))
	var compareNanos, storeNanos atomic.Int64

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(req.Targets))))
	for i, t := range req.Targets {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			r, err := runTarget(gctx, req, t, &compareNanos, &storeNanos)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	waitErr := g.Wait()
	result.Timings.Set(StageFingerprint, time.Since(start))
	result.Timings.Set(StageCompare, time.Duration(compareNanos.Load()))
	result.Timings.Set(StageStore, time.Duration(storeNanos.Load()))
	if waitErr != nil {
		trace.Error(trace.FromContext(ctx), trace.ScopeDriver, "fingerprint", waitErr, span.ID())
		emit(req.Progress, Event{Stage: StageFingerprint, Status: StatusError, Err: waitErr, Elapsed: time.Since(start)})
		return result, waitErr
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Address < results[j].Address })
	result.Targets = results

	present := make([]fingerprint.Digest, 0, len(results))
	var counts [3]int
	for _, r := range results {
		present = append(present, r.Fingerprint)
		switch r.Change {
		case ChangeNew:
			counts[0]++
		case ChangeChanged:
			counts[1]++
		default:
			counts[2]++
		}
	}
	result.BuildKey = fingerprint.Combine(present...)
	if result.Counts, waitErr = tally(counts); waitErr != nil {
		return result, waitErr
	}
	emit(req.Progress, Event{Stage: StageFingerprint, Status: StatusDone, Elapsed: time.Since(start)})
	return result, nil
}

func tally(c [3]int) (Counts, error) {
	var out Counts
	var err error
	if out.New, err = safecast.Conv[uint32](c[0]); err != nil {
		return Counts{}, fmt.Errorf("too many targets: %w", err)
	}
	if out.Changed, err = safecast.Conv[uint32](c[1]); err != nil {
		return Counts{}, fmt.Errorf("too many targets: %w", err)
	}
	if out.Unchanged, err = safecast.Conv[uint32](c[2]); err != nil {
		return Counts{}, fmt.Errorf("too many targets: %w", err)
	}
	return out, nil
}

func runTarget(ctx context.Context, req *Request, t *target.Target, compareNanos, storeNanos *atomic.Int64) (TargetResult, error) {
	began := time.Now()
	emit(req.Progress, Event{Target: t.Address, Stage: StageFingerprint, Status: StatusWorking})
	ctx, span := trace.Start(ctx, trace.ScopeTarget, "target:"+t.Address)
	tracer := trace.FromContext(ctx)

	fail := func(stage Stage, err error) (TargetResult, error) {
		err = fmt.Errorf("%s: %w", t.Address, err)
		trace.Error(tracer, trace.ScopeTarget, "target:"+t.Address, err, span.ID())
		span.End("error")
		emit(req.Progress, Event{Target: t.Address, Stage: stage, Status: StatusError, Err: err, Elapsed: time.Since(began)})
		return TargetResult{}, err
	}

	fields := t.FieldDigests()
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		d := fields[key]
		detail := d.Short(12)
		if d.IsAbsent() {
			detail = "absent"
		}
		trace.Point(tracer, trace.ScopeField, "field:"+key, detail, span.ID())
	}
	r := TargetResult{
		Address:     t.Address,
		Kind:        t.Kind,
		Fingerprint: t.Fingerprint(),
		Fields:      fields,
		Change:      ChangeNew,
	}

	compareStart := time.Now()
	if req.Cache != nil {
		prev, ok, err := req.Cache.Get(t.Address)
		if err != nil {
			return fail(StageCompare, err)
		}
		if ok {
			r.Previous = fingerprint.Digest(prev.Fingerprint)
			r.ChangedFields = diffFields(prev.Fields, fields)
			if r.Previous == r.Fingerprint {
				r.Change = ChangeUnchanged
			} else {
				r.Change = ChangeChanged
			}
		}
	}
	compareNanos.Add(int64(time.Since(compareStart)))

	if req.Write && r.Change != ChangeUnchanged {
		if err := ctx.Err(); err != nil {
			return fail(StageStore, err)
		}
		storeStart := time.Now()
		rec := fpcache.Record{
			Address:     t.Address,
			Fingerprint: string(r.Fingerprint),
			Fields:      make(map[string]string, len(fields)),
		}
		for k, d := range fields {
			rec.Fields[k] = string(d)
		}
		if err := req.Cache.Put(rec); err != nil {
			return fail(StageStore, err)
		}
		storeNanos.Add(int64(time.Since(storeStart)))
		r.Stored = true
	}

	span.WithExtra("change", string(r.Change)).End(r.Fingerprint.Short(12))
	emit(req.Progress, Event{Target: t.Address, Stage: StageFingerprint, Status: StatusDone, Change: r.Change, Elapsed: time.Since(began)})
	return r, nil
}

// diffFields returns keys whose digest differs between the stored record and now.
func diffFields(prev map[string]string, now map[string]fingerprint.Digest) []string {
	var out []string
	for k, d := range now {
		if old, ok := prev[k]; !ok || old != string(d) {
			out = append(out, k)
		}
	}
	for k := range prev {
		if _, ok := now[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Count returns how many targets have change c.
func (r Result) Count(c Change) int {
	n := 0
	for _, t := range r.Targets {
		if t.Change == c {
			n++
		}
	}
	return n
}
