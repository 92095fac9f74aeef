package srs

import (
	"time"

	"github.com/phrazzld/scry-sync/internal/domain"
)

// nextEaseFactor determines the new ease factor based on the review rating.
//
// The ease factor is the multiplier controlling how quickly a card's
// interval grows: a lapse applies a fixed penalty, the top rating applies a
// small bonus and the middle tiers leave it unchanged. The result is always
// clamped to [params.MinEaseFactor, params.MaxEaseFactor].
func nextEaseFactor(
	currentEF float64,
	rating domain.PerformanceRating,
	params *Params,
) float64 {
	newEF := currentEF + params.EaseAdjustment[rating]

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}
	if newEF > params.MaxEaseFactor {
		newEF = params.MaxEaseFactor
	}

	return newEF
}

// nextInterval determines the new review interval.
//
// Three cases:
//   - Lapse (Forgot): the interval resets to params.MinimumInterval.
//   - First-ever review: a fixed bootstrap interval per rating tier, since
//     there is no prior interval to multiply.
//   - Otherwise: previous interval * new ease factor * per-rating modifier,
//     clamped to [MinimumInterval, MaximumInterval].
func nextInterval(
	previous *domain.CardUserData,
	easeFactor float64,
	rating domain.PerformanceRating,
	params *Params,
) time.Duration {
	if rating.IsLapse() {
		return params.MinimumInterval
	}

	if previous.ReviewCount == 0 {
		return params.BootstrapIntervals[rating]
	}

	interval := time.Duration(float64(previous.Interval) * easeFactor * params.IntervalModifier[rating])

	if interval < params.MinimumInterval {
		interval = params.MinimumInterval
	}
	if interval > params.MaximumInterval {
		interval = params.MaximumInterval
	}

	return interval
}

// nextState advances the schedule lifecycle.
//
// New cards enter Learning on their first review. A successful review
// promotes Learning and Lapsed cards to Reviewing. A lapse while Reviewing
// demotes to Lapsed; a lapse earlier in the lifecycle keeps the card in
// Learning.
func nextState(
	current domain.ScheduleState,
	rating domain.PerformanceRating,
) domain.ScheduleState {
	if rating.IsLapse() {
		if current == domain.ScheduleStateReviewing || current == domain.ScheduleStateLapsed {
			return domain.ScheduleStateLapsed
		}
		return domain.ScheduleStateLearning
	}

	switch current {
	case domain.ScheduleStateNew:
		return domain.ScheduleStateLearning
	case domain.ScheduleStateLearning, domain.ScheduleStateLapsed:
		return domain.ScheduleStateReviewing
	default:
		return domain.ScheduleStateReviewing
	}
}

// NextSchedule computes the card's state after a review.
//
// It is deterministic and side-effect-free: identical inputs always produce
// identical outputs, which makes schedule updates reproducible in tests and
// safe to replay during conflict resolution. The input is never modified; a
// new CardUserData is returned with the review appended to its history.
func NextSchedule(
	previous *domain.CardUserData,
	rating domain.PerformanceRating,
	now time.Time,
	params *Params,
) *domain.CardUserData {
	next := previous.Clone()

	next.ReviewCount++
	next.LastReviewedAt = now
	next.EaseFactor = nextEaseFactor(previous.EaseFactor, rating, params)

	if rating.IsLapse() {
		next.Lapses++
	}

	next.Interval = nextInterval(previous, next.EaseFactor, rating, params)
	next.DueAt = now.Add(next.Interval)
	next.State = nextState(previous.State, rating)
	next.UpdatedAt = now

	next.History = append(next.History, domain.ReviewRecord{
		Rating:     rating,
		ReviewedAt: now,
		Interval:   next.Interval,
		EaseFactor: next.EaseFactor,
	})

	return next
}
