package diag

import (
	"fmt"
	"sort"

	"fortio.org/safecast"

	"kestrel/internal/scope"
	"kestrel/internal/vector"
)

type Bag struct {
	items   *vector.Vector[Diagnostic]
	max     uint16
	dropped int
}

// NewBag creates a bag holding at most max diagnostics.
func NewBag(max int) *Bag {
	limit, err := safecast.Conv[uint16](max)
	if err != nil {
		panic(fmt.Errorf("diagnostic limit overflow: %w", err))
	}
	return &Bag{
		items: vector.NewCap[Diagnostic](max),
		max:   limit,
	}
}

// Add appends d unless the limit is reached.
// Returns false when the diagnostic was dropped.
func (b *Bag) Add(d Diagnostic) bool {
	if b.items.Len() >= int(b.max) {
		b.dropped++
		return false
	}
	b.items.Push(d)
	return true
}

func (b *Bag) Cap() uint16 {
	return b.max
}

// Dropped reports how many diagnostics were refused because of the limit.
func (b *Bag) Dropped() int { return b.dropped }

// AddDropped carries over a drop count from another run of the same input.
func (b *Bag) AddDropped(n int) {
	if n > 0 {
		b.dropped += n
	}
}

// HasErrors reports whether any diagnostic is SevError or worse.
func (b *Bag) HasErrors() bool {
	return b.count(SevError) > 0
}

// HasWarnings reports whether any diagnostic is SevWarning or worse.
func (b *Bag) HasWarnings() bool {
	return b.count(SevWarning) > 0
}

func (b *Bag) count(min Severity) int {
	n := 0
	for _, d := range b.items.All() {
		if d.Severity >= min {
			n++
		}
	}
	return n
}

// Counts returns the number of errors and warnings.
func (b *Bag) Counts() (errors, warnings int) {
	for _, d := range b.items.All() {
		switch d.Severity {
		case SevError:
			errors++
		case SevWarning:
			warnings++
		}
	}
	return errors, warnings
}

func (b *Bag) Len() int {
	return b.items.Len()
}

// Items returns a copy of the diagnostics.
func (b *Bag) Items() []Diagnostic {
	return b.items.Items()
}

// Merge appends every diagnostic from other, raising the limit if needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	total := b.items.Len() + other.items.Len()
	if total > int(b.max) {
		limit, err := safecast.Conv[uint16](total)
		if err != nil {
			limit = ^uint16(0)
		}
		b.max = limit
	}
	for _, d := range other.items.All() {
		b.Add(d)
	}
	b.dropped += other.dropped
}

// Sort orders diagnostics by file, path, severity (desc) and code so output
// is deterministic.
func (b *Bag) Sort() {
	items := b.items.Items()
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i], items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Path != dj.Primary.Path {
			return di.Primary.Path < dj.Primary.Path
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
	b.items = vector.Of(items...)
}

// Dedup drops repeated diagnostics (same code, location and message).
func (b *Bag) Dedup() {
	seen := scope.New[struct{}]()
	kept := vector.NewCap[Diagnostic](b.items.Len())
	for _, d := range b.items.All() {
		key := fmt.Sprintf("%s|%s|%s", d.Code.ID(), d.Primary, d.Message)
		if _, dup := seen.GetLocal(key); dup {
			continue
		}
		seen.Put(key, struct{}{})
		kept.Push(d)
	}
	b.items = kept
}
