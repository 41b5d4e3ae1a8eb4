// Package consequence applies resolved test results to character state:
// damage with armour mitigation, extended-test progress, income payouts,
// and corruption. Every mutation goes through the host store so hosts can
// persist and observe changes.
package consequence

import (
	"go.uber.org/zap"

	"github.com/oldworld-vtt/grimcore/internal/config"
	"github.com/oldworld-vtt/grimcore/internal/game/dice"
	"github.com/oldworld-vtt/grimcore/internal/game/hook"
	"github.com/oldworld-vtt/grimcore/internal/game/ruleset"
	"github.com/oldworld-vtt/grimcore/internal/host"
)

// Processor applies consequences. It holds read-only collaborators plus the
// host store and notifier.
type Processor struct {
	rules    *ruleset.Rules
	opts     config.Options
	hooks    *hook.Registry
	store    host.Store
	notifier host.Notifier
	audio    host.AudioHint
	roller   dice.Roller
	logger   *zap.Logger
}

// NewProcessor creates a Processor.
//
// Precondition: rules, hooks, store, notifier, audio, roller, and logger
// must be non-nil.
func NewProcessor(
	rules *ruleset.Rules,
	opts config.Options,
	hooks *hook.Registry,
	store host.Store,
	notifier host.Notifier,
	audio host.AudioHint,
	roller dice.Roller,
	logger *zap.Logger,
) *Processor {
	if rules == nil || hooks == nil || store == nil || notifier == nil || audio == nil || roller == nil || logger == nil {
		panic("consequence: NewProcessor: precondition violated: collaborators must be non-nil")
	}
	return &Processor{
		rules:    rules,
		opts:     opts,
		hooks:    hooks,
		store:    store,
		notifier: notifier,
		audio:    audio,
		roller:   roller,
		logger:   logger,
	}
}
