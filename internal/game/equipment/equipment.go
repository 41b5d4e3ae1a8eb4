// Package equipment derives combat-ready state from a possession list:
// per-location armour layers, shield points, carried encumbrance, and
// ammunition bookkeeping for ranged weapons.
package equipment

import (
	"errors"
	"fmt"
	"math"

	"github.com/oldworld-vtt/grimcore/internal/game/item"
	"github.com/oldworld-vtt/grimcore/internal/game/ruleset"
)

var (
	// ErrNoAmmo is returned when a weapon that consumes ammunition has none
	// available.
	ErrNoAmmo = errors.New("equipment: no ammunition available")
	// ErrNotLoaded is returned when a loading weapon is fired before its
	// reload completes.
	ErrNotLoaded = errors.New("equipment: weapon is not loaded")
)

// Layer is one equipped armour piece's contribution at a single location.
// Layers keep their bypass flags so damage mitigation can skip them
// individually.
type Layer struct {
	Value        int
	Partial      bool
	Weakpoints   bool
	Impenetrable bool
	Metal        bool
	Type         item.ArmourType
}

// APLocation is the stacked protection at one location.
type APLocation struct {
	// Value is the summed AP of all layers.
	Value  int
	Layers []Layer
}

// Loadout is the derived equipment state. It is rebuilt from possessions on
// every preparation pass and never persisted.
type Loadout struct {
	AP map[ruleset.Location]*APLocation
	// Shield is the summed shield rating of equipped shield weapons, net of
	// damage-to-item.
	Shield int
	// Encumbrance is total carried weight, floored to a whole number.
	Encumbrance int
	// WearingMail and WearingPlate flag the noisy armour types worn; each
	// type penalises stealth once however many pieces stack. PracticalPieces
	// counts every equipped practical piece offsetting it.
	WearingMail     bool
	WearingPlate    bool
	PracticalPieces int
}

// Resolve builds a Loadout from possessions. Only equipped armour and
// weapons contribute; contained items skip encumbrance unless flagged.
//
// Postcondition: Returns a Loadout with an APLocation for every body
// location, each Value >= 0.
func Resolve(possessions []*item.Possession) *Loadout {
	l := &Loadout{AP: make(map[ruleset.Location]*APLocation)}
	for _, loc := range ruleset.Locations() {
		l.AP[loc] = &APLocation{}
	}

	containers := map[string]bool{}
	for _, p := range possessions {
		if p.Kind == item.KindContainer {
			containers[p.ID] = true
		}
	}

	enc := 0.0
	for _, p := range possessions {
		contained := p.ContainerID != "" && containers[p.ContainerID]
		if !contained || p.CountEnc {
			enc += p.Encumbrance * float64(p.Quantity)
		}

		if !p.Equipped {
			continue
		}
		switch p.Kind {
		case item.KindArmour:
			stackArmour(l, p.Armour)
		case item.KindWeapon:
			l.Shield += p.Weapon.ShieldValue()
		}
	}
	l.Encumbrance = int(math.Floor(enc))
	return l
}

func stackArmour(l *Loadout, a *item.Armour) {
	for _, loc := range a.Locations {
		ap := a.APAt(loc)
		slot, ok := l.AP[loc]
		if !ok {
			continue
		}
		slot.Value += ap
		slot.Layers = append(slot.Layers, Layer{
			Value:        ap,
			Partial:      a.Partial,
			Weakpoints:   a.Weakpoints,
			Impenetrable: a.Impenetrable,
			Metal:        a.Metal,
			Type:         a.Type,
		})
	}
	switch a.Type {
	case item.ArmourMail:
		l.WearingMail = true
	case item.ArmourPlate:
		l.WearingPlate = true
	}
	if a.Practical {
		l.PracticalPieces++
	}
}

// AmmoFor finds the ammunition possession a weapon would expend. Weapons
// with an empty ammo group consume themselves (thrown weapons).
//
// Postcondition: Returns ErrNoAmmo when nothing usable remains.
func AmmoFor(weapon *item.Possession, possessions []*item.Possession) (*item.Possession, error) {
	if weapon.Kind != item.KindWeapon || weapon.Weapon == nil {
		return nil, fmt.Errorf("equipment: possession %q is not a weapon", weapon.Name)
	}
	w := weapon.Weapon
	if !w.ConsumesAmmo {
		return nil, nil
	}
	if w.AmmoGroup == "" {
		if weapon.Quantity <= 0 {
			return nil, ErrNoAmmo
		}
		return weapon, nil
	}
	if w.CurrentAmmoID != "" {
		for _, p := range possessions {
			if p.ID == w.CurrentAmmoID {
				if p.Kind != item.KindAmmunition || p.Ammunition == nil || p.Quantity <= 0 {
					return nil, ErrNoAmmo
				}
				return p, nil
			}
		}
		return nil, ErrNoAmmo
	}
	for _, p := range possessions {
		if p.Kind == item.KindAmmunition && p.Ammunition != nil &&
			p.Ammunition.Group == w.AmmoGroup && p.Quantity > 0 {
			return p, nil
		}
	}
	return nil, ErrNoAmmo
}

// CheckLoaded verifies a loading weapon is ready to fire.
//
// Postcondition: Returns ErrNotLoaded iff the weapon requires loading and is
// not loaded; nil for non-loading weapons.
func CheckLoaded(weapon *item.Possession) error {
	if weapon.Kind != item.KindWeapon || weapon.Weapon == nil {
		return fmt.Errorf("equipment: possession %q is not a weapon", weapon.Name)
	}
	if weapon.Weapon.Loading && !weapon.Weapon.Loaded {
		return ErrNotLoaded
	}
	return nil
}
