// Package hook provides the typed trigger registry through which optional
// rules contribute to engine computations. It replaces per-entity script
// snippets: callbacks are registered in Go against a named trigger and
// receive a mutable payload, so extensibility survives without dynamic code
// execution.
package hook

import (
	"fmt"

	"go.uber.org/zap"
)

// Trigger names a point in the engine where registered callbacks run.
type Trigger string

const (
	// PreWoundCalc runs before the wound formula; payload may adjust the
	// effective bonuses and multipliers.
	PreWoundCalc Trigger = "preWoundCalc"
	// WoundCalc runs after the wound formula; payload may adjust the total.
	WoundCalc Trigger = "woundCalc"
	// PrefillDialog runs while building a test specification.
	PrefillDialog Trigger = "prefillDialog"
	// TargetPrefillDialog runs while building a test specification with a
	// selected target.
	TargetPrefillDialog Trigger = "targetPrefillDialog"
	// PreTakeDamage runs on the defender before damage mitigation.
	PreTakeDamage Trigger = "preTakeDamage"
	// TakeDamage runs on the defender after mitigation, before application.
	TakeDamage Trigger = "takeDamage"
	// PreApplyDamage runs on the attacker before damage mitigation.
	PreApplyDamage Trigger = "preApplyDamage"
	// ApplyDamage runs on the attacker after mitigation.
	ApplyDamage Trigger = "applyDamage"
)

// Func is a registered callback. It receives the trigger-specific payload
// and mutates it in place. Returning an error voids the callback's effect
// from the caller's perspective and surfaces a warning; sibling callbacks
// still run.
type Func func(payload any) error

type entry struct {
	name string
	fn   Func
}

// Registry maps triggers to ordered callback lists.
// It is not safe for concurrent registration; register during setup.
type Registry struct {
	logger *zap.Logger
	hooks  map[Trigger][]entry
}

// NewRegistry creates an empty Registry.
//
// Precondition: logger must be non-nil.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		panic("hook: NewRegistry: precondition violated: logger must be non-nil")
	}
	return &Registry{logger: logger, hooks: make(map[Trigger][]entry)}
}

// Register appends fn to the callback list for trigger t.
//
// Precondition: name must be non-empty and fn non-nil.
// Postcondition: fn runs after all previously registered callbacks for t.
func (r *Registry) Register(t Trigger, name string, fn Func) {
	if name == "" {
		panic("hook: Register: precondition violated: name must be non-empty")
	}
	if fn == nil {
		panic("hook: Register: precondition violated: fn must be non-nil")
	}
	r.hooks[t] = append(r.hooks[t], entry{name: name, fn: fn})
}

// Run invokes every callback registered for trigger t, in registration
// order, passing each the same payload. A callback that returns an error or
// panics contributes nothing further and is logged as a warning; the
// remaining callbacks still run.
//
// Postcondition: Returns the names of callbacks that completed without error,
// in execution order.
func (r *Registry) Run(t Trigger, payload any) []string {
	var ran []string
	for _, e := range r.hooks[t] {
		if err := r.invoke(t, e, payload); err != nil {
			r.logger.Warn("rule hook failed",
				zap.String("trigger", string(t)),
				zap.String("hook", e.name),
				zap.Error(err),
			)
			continue
		}
		ran = append(ran, e.name)
	}
	return ran
}

// invoke isolates a single callback, converting panics to errors.
func (r *Registry) invoke(t Trigger, e entry, payload any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("hook %q on %q panicked: %v", e.name, t, rec)
		}
	}()
	return e.fn(payload)
}
