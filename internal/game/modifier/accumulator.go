// Package modifier collects numeric test adjustments from independent rules
// into one combined prefill value with a full audit trail.
package modifier

// Contribution is a single named adjustment to a pending test.
type Contribution struct {
	// Reason is the human-readable audit label, e.g. "Advantage" or
	// "Weapon quality: Accurate".
	Reason string
	// Modifier is the flat adjustment to the target number.
	Modifier int
	// SLBonus adjusts the resolved degree of success.
	SLBonus int
	// SuccessBonus shifts a borderline degree by one per point.
	SuccessBonus int
	// DifficultySteps steps the difficulty tier: positive is easier.
	DifficultySteps int
}

// Accumulator sums Contributions. Accumulation is commutative addition, so
// insertion order affects only the audit log, never the totals.
//
// The zero value is ready to use.
type Accumulator struct {
	contribs []Contribution
}

// Add records a contribution. Contributions with all-zero values are still
// recorded so their reasons appear in the audit trail.
func (a *Accumulator) Add(c Contribution) {
	a.contribs = append(a.contribs, c)
}

// Modifier returns the summed flat modifier.
func (a *Accumulator) Modifier() int {
	total := 0
	for _, c := range a.contribs {
		total += c.Modifier
	}
	return total
}

// SLBonus returns the summed SL bonus.
func (a *Accumulator) SLBonus() int {
	total := 0
	for _, c := range a.contribs {
		total += c.SLBonus
	}
	return total
}

// SuccessBonus returns the summed success bonus.
func (a *Accumulator) SuccessBonus() int {
	total := 0
	for _, c := range a.contribs {
		total += c.SuccessBonus
	}
	return total
}

// DifficultySteps returns the summed difficulty steps.
func (a *Accumulator) DifficultySteps() int {
	total := 0
	for _, c := range a.contribs {
		total += c.DifficultySteps
	}
	return total
}

// Audit returns the reasons of all contributions in insertion order.
//
// Postcondition: len(Audit()) equals the number of Add calls.
func (a *Accumulator) Audit() []string {
	out := make([]string, 0, len(a.contribs))
	for _, c := range a.contribs {
		out = append(out, c.Reason)
	}
	return out
}

// Contributions returns a copy of the recorded contributions.
func (a *Accumulator) Contributions() []Contribution {
	out := make([]Contribution, len(a.contribs))
	copy(out, a.contribs)
	return out
}
