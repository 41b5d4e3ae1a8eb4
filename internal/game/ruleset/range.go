package ruleset

// RangeBand is one discrete distance band for a ranged weapon.
type RangeBand struct {
	Name     string  `yaml:"name"`
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
	Modifier int     `yaml:"modifier"`
}

// DefaultRangeBands constructs the standard five bands for a weapon with the
// given listed range (in yards).
//
// Precondition: weaponRange > 0.
// Postcondition: Bands are contiguous from 0 to 3x the listed range.
func DefaultRangeBands(weaponRange int) []RangeBand {
	r := float64(weaponRange)
	return []RangeBand{
		{Name: "Point Blank", Min: 0, Max: r / 10, Modifier: 40},
		{Name: "Short Range", Min: r / 10, Max: r / 2, Modifier: 20},
		{Name: "Normal", Min: r / 2, Max: r, Modifier: 0},
		{Name: "Long Range", Min: r, Max: r * 2, Modifier: -10},
		{Name: "Extreme", Min: r * 2, Max: r * 3, Modifier: -30},
	}
}

// BandFor returns the band containing distance, matching on
// Min <= distance <= Max in table order.
//
// Postcondition: Returns the first matching band and true, or the zero band
// and false when the distance is beyond every band.
func BandFor(bands []RangeBand, distance float64) (RangeBand, bool) {
	for _, b := range bands {
		if distance >= b.Min && distance <= b.Max {
			return b, true
		}
	}
	return RangeBand{}, false
}
