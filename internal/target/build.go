package target

import (
	"fmt"
	"sort"
	"strings"

	"fieldhash/internal/archive"
	"fieldhash/internal/diag"
	"fieldhash/internal/exclude"
	"fieldhash/internal/field"
	"fieldhash/internal/payload"
	"fieldhash/internal/project"
	"fieldhash/internal/requirement"
)

// Options tune Build.
type Options struct {
	// MaxDiagnostics limits how many problems are collected (default 64).
	MaxDiagnostics int
	// Field options applied to every field, e.g. field.WithSerializer.
	Field []field.Option
}

// Build validates specs and constructs targets in manifest order.
// All problems are collected; the returned error is a *diag.ConfigError.
// Warnings are returned alongside the targets.
func Build(specs []project.TargetSpec, opts Options) ([]*Target, []diag.Diagnostic, error) {
	limit := opts.MaxDiagnostics
	if limit <= 0 {
		limit = 64
	}
	b := &builder{bag: diag.NewBag(limit), fopts: opts.Field}

	seen := make(map[string]int, len(specs))
	targets := make([]*Target, 0, len(specs))
	for i, spec := range specs {
		addr := strings.TrimSpace(spec.Address)
		if addr == "" {
			b.bag.Errorf(diag.TargetMissingAddress, fmt.Sprintf("target[%d]", i), "address", "missing address")
			continue
		}
		if first, dup := seen[addr]; dup {
			b.bag.Errorf(diag.TargetDuplicateAddress, addr, "address",
				"duplicate address (first defined by target[%d])", first)
			continue
		}
		seen[addr] = i
		if t := b.build(addr, spec); t != nil {
			targets = append(targets, t)
		}
	}

	if err := b.bag.Err(); err != nil {
		return nil, nil, err
	}
	return targets, b.bag.Items(), nil
}

type builder struct {
	bag   *diag.Bag
	fopts []field.Option
	// failed is reset per target; the bag may drop diagnostics, this flag does not.
	failed bool
}

func (b *builder) errorf(code diag.Code, addr, key, format string, args ...any) {
	b.failed = true
	b.bag.Errorf(code, addr, key, format, args...)
}

func (b *builder) build(addr string, spec project.TargetSpec) *Target {
	kind := strings.TrimSpace(spec.Kind)
	if kind == "" {
		kind = DefaultKind
	}
	if _, ok := knownKinds[kind]; !ok {
		b.bag.Warnf(diag.TargetUnknownKind, addr, "kind", "unknown kind %q", kind)
	}

	b.failed = false
	p := payload.New()
	add := func(key string, f field.Field) {
		if err := p.Add(key, f); err != nil {
			b.errorf(diag.FieldDuplicateKey, addr, key, "%v", err)
		}
	}

	if spec.Dependencies != nil {
		if f := b.dependencies(addr, spec.Dependencies); f != nil {
			add(KeyDependencies, f)
		}
	}
	if spec.Requirements != nil {
		if f := b.requirements(addr, spec.Requirements); f != nil {
			add(KeyRequirements, f)
		}
	}
	if spec.Excludes != nil {
		if f := b.excludes(addr, spec.Excludes); f != nil {
			add(KeyExcludes, f)
		}
	}
	if spec.Jars != nil {
		if f := b.jars(addr, spec.Jars); f != nil {
			add(KeyJars, f)
		}
	}
	if spec.NativeLibrary != "" {
		if f := b.nativeLibrary(addr, spec.NativeLibrary); f != nil {
			add(KeyNativeLibrary, f)
		}
	}

	for _, key := range sortedKeys(spec.Primitives) {
		f, err := field.NewPrimitive(spec.Primitives[key], b.fopts...)
		if err != nil {
			b.errorf(diag.FieldInvalidValue, addr, key, "%v", err)
			continue
		}
		add(key, f)
	}
	for _, key := range sortedKeys(spec.Sets) {
		f, err := b.primitiveSet(spec.Sets[key])
		if err != nil {
			b.errorf(diag.FieldInvalidValue, addr, key, "%v", err)
			continue
		}
		add(key, f)
	}

	if b.failed {
		return nil
	}
	p.Freeze()
	return &Target{Address: addr, Kind: kind, Payload: p}
}

func (b *builder) dependencies(addr string, deps []string) field.Field {
	clean := make([]string, 0, len(deps))
	for i, d := range deps {
		d = strings.TrimSpace(d)
		if d == "" {
			b.errorf(diag.FieldEmptySetMember, addr, KeyDependencies, "element %d is empty", i)
			return nil
		}
		if d == addr {
			b.errorf(diag.FieldInvalidValue, addr, KeyDependencies, "target depends on itself")
			return nil
		}
		clean = append(clean, d)
	}
	f, err := field.NewPrimitiveSet(clean, b.fopts...)
	if err != nil {
		b.errorf(diag.FieldInvalidValue, addr, KeyDependencies, "%v", err)
		return nil
	}
	return f
}

func (b *builder) requirements(addr string, specs []project.RequirementSpec) field.Field {
	reqs := make([]requirement.Requirement, 0, len(specs))
	ok := true
	for _, rs := range specs {
		r, err := requirement.New(rs.Spec,
			requirement.WithRepository(rs.Repository),
			requirement.WithName(rs.Name),
			requirement.WithUse2to3(rs.Use2to3),
			requirement.WithCompatibility(rs.Compatibility),
		)
		if err != nil {
			b.errorf(diag.FieldBadRequirement, addr, KeyRequirements, "%q: %v", rs.Spec, err)
			ok = false
			continue
		}
		reqs = append(reqs, r)
	}
	if !ok {
		return nil
	}
	f, err := field.NewRequirements(reqs, b.fopts...)
	if err != nil {
		b.errorf(diag.FieldBadRequirement, addr, KeyRequirements, "%v", err)
		return nil
	}
	return f
}

func (b *builder) excludes(addr string, specs []string) field.Field {
	xs, err := exclude.ParseAll(specs)
	if err != nil {
		b.errorf(diag.FieldBadExclude, addr, KeyExcludes, "%v", err)
		return nil
	}
	f, err := field.NewExcludes(xs, b.fopts...)
	if err != nil {
		b.errorf(diag.FieldBadExclude, addr, KeyExcludes, "%v", err)
		return nil
	}
	return f
}

func (b *builder) jars(addr string, specs []project.JarSpec) field.Field {
	jars := make([]archive.Archive, 0, len(specs))
	ok := true
	for i, js := range specs {
		xs, err := exclude.ParseAll(js.Excludes)
		if err != nil {
			b.errorf(diag.FieldBadArchive, addr, KeyJars, "jar %d: %v", i, err)
			ok = false
			continue
		}
		a, err := archive.New(archive.Archive{
			Org:          js.Org,
			Name:         js.Name,
			Rev:          js.Rev,
			Classifier:   js.Classifier,
			Ext:          js.Ext,
			URL:          js.URL,
			Mutable:      js.Mutable,
			Force:        js.Force,
			Intransitive: js.Intransitive,
			Excludes:     xs,
		})
		if err != nil {
			b.errorf(diag.FieldBadArchive, addr, KeyJars, "jar %d: %v", i, err)
			ok = false
			continue
		}
		jars = append(jars, a)
	}
	if !ok {
		return nil
	}
	f, err := field.NewArchives(jars, b.fopts...)
	if err != nil {
		b.errorf(diag.FieldBadArchive, addr, KeyJars, "%v", err)
		return nil
	}
	return f
}

func (b *builder) nativeLibrary(addr, name string) field.Field {
	lib, err := archive.NewNativeLibrary(name)
	if err != nil {
		b.errorf(diag.FieldBadNativeLib, addr, KeyNativeLibrary, "%v", err)
		return nil
	}
	f, err := field.NewFingerprinted(lib)
	if err != nil {
		b.errorf(diag.FieldBadNativeLib, addr, KeyNativeLibrary, "%v", err)
		return nil
	}
	return f
}

// primitiveSet picks the element type from the TOML values: all strings,
// all integers or all floats. An empty list is an empty string set.
func (b *builder) primitiveSet(items []any) (field.Field, error) {
	if len(items) == 0 {
		return field.NewPrimitiveSet([]string{}, b.fopts...)
	}
	switch items[0].(type) {
	case string:
		return buildSet[string](items, b.fopts)
	case int64:
		return buildSet[int64](items, b.fopts)
	case float64:
		return buildSet[float64](items, b.fopts)
	}
	return nil, fmt.Errorf("set elements must be strings or numbers, got %T", items[0])
}

func buildSet[T string | int64 | float64](items []any, opts []field.Option) (field.Field, error) {
	out := make([]T, 0, len(items))
	for i, v := range items {
		x, ok := v.(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("element %d: mixed set element types (%T and %T)", i, zero, v)
		}
		out = append(out, x)
	}
	return field.NewPrimitiveSet(out, opts...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
