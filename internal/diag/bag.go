package diag

import (
	"fmt"
	"math"
	"sort"

	"fortio.org/safecast"
)

type Bag struct {
	items         []Diagnostic
	max           uint16
	dropped       int
	droppedErrors int
}

// NewBag creates a bag that keeps at most max diagnostics.
// Values that do not fit uint16 are clamped.
func NewBag(max int) *Bag {
	limit, err := safecast.Conv[uint16](max)
	if err != nil {
		if max < 0 {
			limit = 0
		} else {
			limit = math.MaxUint16
		}
	}
	return &Bag{
		items: make([]Diagnostic, 0, min(int(limit), 64)),
		max:   limit,
	}
}

// Add добавляет диагностику, учитывая лимит.
// When the bag is full an error displaces the latest non-blocking entry.
// Returns false if d itself was not stored; a dropped error is still
// counted and keeps HasErrors true.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) < int(b.max) {
		b.items = append(b.items, d)
		return true
	}
	b.dropped++
	if !d.Severity.Blocking() {
		return false
	}
	for i := len(b.items) - 1; i >= 0; i-- {
		if !b.items[i].Severity.Blocking() {
			b.items[i] = d
			return true
		}
	}
	b.droppedErrors++
	return false
}

// Errorf adds an error diagnostic.
func (b *Bag) Errorf(code Code, target, field, format string, args ...any) bool {
	return b.Add(Diagnostic{
		Severity: SevError,
		Code:     code,
		Target:   target,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Warnf adds a warning diagnostic.
func (b *Bag) Warnf(code Code, target, field, format string, args ...any) bool {
	return b.Add(Diagnostic{
		Severity: SevWarning,
		Code:     code,
		Target:   target,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (b *Bag) Cap() uint16 {
	return b.max
}

// Dropped returns how many diagnostics were lost to the limit.
func (b *Bag) Dropped() int {
	return b.dropped
}

// DroppedErrors returns how many of the lost diagnostics were errors.
func (b *Bag) DroppedErrors() int {
	return b.droppedErrors
}

// HasErrors возвращает true, если есть хотя бы одна ошибка,
// включая не поместившиеся в лимит.
func (b *Bag) HasErrors() bool {
	if b.droppedErrors > 0 {
		return true
	}
	for i := range b.items {
		if b.items[i].Severity.Blocking() {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice диагностик.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge объединяет диагностики из другого Bag, не превышая лимит.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	for _, d := range other.items {
		b.Add(d)
	}
	b.dropped += other.dropped
	b.droppedErrors += other.droppedErrors
}

// Sort orders by target, field, severity (desc), code.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Target != dj.Target {
			return di.Target < dj.Target
		}
		if di.Field != dj.Field {
			return di.Field < dj.Field
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}

// Err returns a *ConfigError holding the error diagnostics, or nil if there are none.
func (b *Bag) Err() error {
	if !b.HasErrors() {
		return nil
	}
	b.Sort()
	ce := &ConfigError{Dropped: b.droppedErrors}
	for _, d := range b.items {
		if d.Severity.Blocking() {
			ce.Diagnostics = append(ce.Diagnostics, d)
		}
	}
	return ce
}
