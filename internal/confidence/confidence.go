// Package confidence holds the scoring model shared by every resolution
// strategy: a base score for unverified discoveries, a boost applied when
// verification confirms a candidate, and a ceiling the boost cannot exceed.
package confidence

// Model constants. The ceiling is deliberately below 1.0: resolution is
// never certain enough to report a perfect score.
const (
	Base    = 0.4
	Boost   = 0.15
	Ceiling = 0.95
)

// Discovered returns the confidence for a freshly discovered, unverified
// candidate. An already-higher prior is never lowered.
func Discovered(prior float64) float64 {
	if prior > Base {
		return Clamp(prior)
	}
	return Base
}

// Verified returns the confidence after verification confirms a candidate:
// min(Ceiling, max(prior, Base) + Boost). Applying the boost to a score
// already at the ceiling is a no-op.
func Verified(prior float64) float64 {
	c := Discovered(prior) + Boost
	if c > Ceiling {
		return Ceiling
	}
	return c
}

// Clamp forces a score into [0,1].
func Clamp(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
