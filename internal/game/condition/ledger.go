package condition

import (
	"fmt"
	"sort"

	"github.com/oldworld-vtt/grimcore/internal/game/modifier"
)

// fatigueOnZero lists conditions that leave a fatigued condition behind when
// they wear off.
var fatigueOnZero = map[string]bool{
	"bleeding":    true,
	"broken":      true,
	"poisoned":    true,
	"stunned":     true,
	"unconscious": true,
}

// Ledger tracks the conditions on one character. The zero value is not
// usable; construct with NewLedger.
type Ledger struct {
	reg *Registry
	// entries maps condition ID to rating; binary conditions store 1.
	entries map[string]int
}

// NewLedger creates a Ledger against reg, seeded from existing ratings.
//
// Precondition: reg must be non-nil.
func NewLedger(reg *Registry, existing map[string]int) *Ledger {
	if reg == nil {
		panic("condition: NewLedger: precondition violated: reg must be non-nil")
	}
	l := &Ledger{reg: reg, entries: make(map[string]int)}
	for id, n := range existing {
		if n > 0 && reg.Get(id) != nil {
			l.entries[id] = n
		}
	}
	return l
}

// Rating returns the current rating of id, 0 if absent.
func (l *Ledger) Rating(id string) int {
	return l.entries[id]
}

// Has reports whether the condition is present at any rating.
func (l *Ledger) Has(id string) bool {
	return l.entries[id] > 0
}

// Add raises the rating of id by n (binary conditions clamp to 1). Gaining
// unconscious also knocks the character prone.
//
// Precondition: n must be > 0.
// Postcondition: Returns the new rating, or an error for an unknown ID.
func (l *Ledger) Add(id string, n int) (int, error) {
	if n <= 0 {
		panic("condition: Add: precondition violated: n must be > 0")
	}
	def := l.reg.Get(id)
	if def == nil {
		return 0, fmt.Errorf("condition: unknown condition %q", id)
	}

	rating := l.entries[id]
	if def.Numbered {
		rating += n
		if def.Cap > 0 && rating > def.Cap {
			rating = def.Cap
		}
	} else {
		rating = 1
	}
	l.entries[id] = rating

	if id == "unconscious" && !l.Has("prone") {
		if _, err := l.Add("prone", 1); err != nil {
			return rating, err
		}
	}
	return rating, nil
}

// Remove lowers the rating of id by n, deleting it at zero. Conditions in
// the fatigue table leave a fatigued condition behind when they clear.
//
// Precondition: n must be > 0.
// Postcondition: Returns the new rating (0 when cleared), or an error for an
// unknown ID.
func (l *Ledger) Remove(id string, n int) (int, error) {
	if n <= 0 {
		panic("condition: Remove: precondition violated: n must be > 0")
	}
	if l.reg.Get(id) == nil {
		return 0, fmt.Errorf("condition: unknown condition %q", id)
	}
	rating, present := l.entries[id]
	if !present {
		return 0, nil
	}
	rating -= n
	if rating > 0 {
		l.entries[id] = rating
		return rating, nil
	}
	delete(l.entries, id)
	if fatigueOnZero[id] {
		if _, err := l.Add("fatigued", 1); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

// Active returns the present condition IDs with ratings, sorted by ID.
func (l *Ledger) Active() map[string]int {
	out := make(map[string]int, len(l.entries))
	for id, n := range l.entries {
		out[id] = n
	}
	return out
}

// Contributions returns the test-modifier contributions of every active
// condition, sorted by ID for deterministic audits. Numbered conditions
// apply their modifier per rating point.
func (l *Ledger) Contributions() []modifier.Contribution {
	ids := make([]string, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []modifier.Contribution
	for _, id := range ids {
		def := l.reg.Get(id)
		if def == nil || def.TestModifier == 0 {
			continue
		}
		mod := def.TestModifier
		if def.Numbered {
			mod *= l.entries[id]
		}
		out = append(out, modifier.Contribution{
			Reason:   def.Name,
			Modifier: mod,
		})
	}
	return out
}
