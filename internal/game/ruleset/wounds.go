package ruleset

import "fmt"

// WoundMultiplier holds per-bonus wound-formula multipliers contributed by
// traits and talents (a hardiness trait adds 1 to TB, for example). The
// zero value contributes nothing.
type WoundMultiplier struct {
	SB  int
	TB  int
	WPB int
}

// extra is the trait-contributed term shared by every size tier.
func (m WoundMultiplier) extra(sb, tb, wpb int) int {
	return sb*m.SB + tb*m.TB + wpb*m.WPB
}

// Wounds computes the maximum wounds for a creature of the given size from
// its strength, toughness, and willpower bonuses plus trait multipliers.
//
// Per-tier closed forms (x = trait-contributed extra):
//
//	tiny      1 + x
//	little    tb + x
//	small     2·tb + wpb + x
//	average   sb + 2·tb + wpb + x
//	large     2·(sb + 2·tb + wpb + x)
//	enormous  4·(sb + 2·tb + wpb + x)
//	monstrous 8·(sb + 2·tb + wpb + x)
//
// Postcondition: Pure function of its arguments; returns an error only for
// an unknown size.
func Wounds(size Size, sb, tb, wpb int, mult WoundMultiplier) (int, error) {
	x := mult.extra(sb, tb, wpb)
	switch size {
	case SizeTiny:
		return 1 + x, nil
	case SizeLittle:
		return tb + x, nil
	case SizeSmall:
		return 2*tb + wpb + x, nil
	case SizeAverage:
		return sb + 2*tb + wpb + x, nil
	case SizeLarge:
		return 2 * (sb + 2*tb + wpb + x), nil
	case SizeEnormous:
		return 4 * (sb + 2*tb + wpb + x), nil
	case SizeMonstrous:
		return 8 * (sb + 2*tb + wpb + x), nil
	default:
		return 0, fmt.Errorf("ruleset: unknown size %q", size)
	}
}
