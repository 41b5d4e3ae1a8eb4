package dice

import (
	"crypto/rand"
	"math/big"
)

// cryptoSource draws from the operating system's entropy pool, so percentile
// rolls stay unpredictable even across process restarts. It carries no state
// and is safe for concurrent use.
type cryptoSource struct{}

// NewCryptoSource returns the default production Source. Tests substitute
// fixed sources instead of seeding this one.
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Intn returns a uniformly distributed int in [0, n).
//
// Precondition: n > 0.
func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn: precondition violated: n must be > 0")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: Intn: entropy read failed: " + err.Error())
	}
	return int(v.Int64())
}
