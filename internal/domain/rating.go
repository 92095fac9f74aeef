package domain

import "fmt"

// PerformanceRating grades the outcome of a single card review.
//
// Ratings form a total order (Forgot < Hard < Good < Easy) and the
// scheduler depends on that ordering: Forgot is always the lapse tier and
// Easy is always the top tier. No two ratings compare equal.
type PerformanceRating int

// Rating tiers, from worst to best.
const (
	RatingForgot PerformanceRating = iota
	RatingHard
	RatingGood
	RatingEasy
)

// IsValid reports whether the rating is one of the four known tiers.
func (r PerformanceRating) IsValid() bool {
	return r >= RatingForgot && r <= RatingEasy
}

// IsLapse reports whether the rating is the lowest tier, indicating the
// card was forgotten.
func (r PerformanceRating) IsLapse() bool {
	return r == RatingForgot
}

// Remembered reports whether the rating counts toward the "cards
// remembered" tally shown during cram sessions.
func (r PerformanceRating) Remembered() bool {
	return r >= RatingGood
}

// String implements fmt.Stringer.
func (r PerformanceRating) String() string {
	switch r {
	case RatingForgot:
		return "forgot"
	case RatingHard:
		return "hard"
	case RatingGood:
		return "good"
	case RatingEasy:
		return "easy"
	default:
		return fmt.Sprintf("PerformanceRating(%d)", int(r))
	}
}
