// Package host defines the interfaces the engine needs from its embedding
// application: persistence, user confirmation, notification, and
// localization. The engine never talks to storage or a UI directly; a host
// implements these and the engine stays testable against the in-memory
// versions.
package host

import (
	"context"
	"errors"

	"github.com/oldworld-vtt/grimcore/internal/game/character"
	"github.com/oldworld-vtt/grimcore/internal/game/roll"
)

// ErrCancelled is returned when the user declines a dialog.
var ErrCancelled = errors.New("host: cancelled by user")

// ErrNotFound is returned by a Store when no character has the given ID.
var ErrNotFound = errors.New("host: character not found")

// Store persists characters. Update must be applied atomically with respect
// to other Updates for the same ID.
type Store interface {
	// Get returns the character with the given ID.
	Get(ctx context.Context, id string) (*character.Character, error)
	// Put inserts or replaces a character.
	Put(ctx context.Context, c *character.Character) error
	// Update applies fn to the stored character and persists the result.
	// fn returning an error aborts the update.
	Update(ctx context.Context, id string, fn func(c *character.Character) error) error
	// Delete removes a character.
	Delete(ctx context.Context, id string) error
}

// Dialog confirms a pending test with the user, who may adjust the
// specification before rolling.
type Dialog interface {
	// Confirm presents spec for adjustment. Returns ErrCancelled when the
	// user declines the test.
	Confirm(ctx context.Context, spec *roll.Specification) error
}

// Notifier surfaces engine messages to the user.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// AudioHint asks the host to play a sound cue, e.g. on a critical hit.
// Hosts without audio ignore it.
type AudioHint interface {
	Play(ctx context.Context, cue string)
}

// Localizer translates message keys for user-facing strings.
type Localizer interface {
	// Localize returns the translation for key, or key itself when no
	// translation exists.
	Localize(key string) string
}

// NopDialog confirms every test unchanged.
type NopDialog struct{}

func (NopDialog) Confirm(ctx context.Context, spec *roll.Specification) error { return nil }

// NopNotifier discards messages.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, message string) {}

// NopAudio discards cues.
type NopAudio struct{}

func (NopAudio) Play(ctx context.Context, cue string) {}

// IdentityLocalizer returns keys untranslated.
type IdentityLocalizer struct{}

func (IdentityLocalizer) Localize(key string) string { return key }
