package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/scry-sync/internal/domain"
)

// Common errors
var (
	ErrNilData     = errors.New("card user data cannot be nil")
	ErrInvalidDays = errors.New("postpone days must be at least 1")
)

// Service defines the interface for schedule operations on a single card's
// review state.
type Service interface {
	// SubmitRating applies a review rating to the card's schedule and
	// returns the updated state.
	//
	// Reviews must be causally ordered: a rating whose timestamp precedes
	// the schedule's last recorded review is rejected with an error
	// wrapping domain.ErrInvalidRating, never silently applied.
	SubmitRating(
		data *domain.CardUserData,
		rating domain.PerformanceRating,
		now time.Time,
	) (*domain.CardUserData, error)

	// PostponeReview pushes the next review time forward by a number of
	// days without affecting interval or ease factor.
	PostponeReview(
		data *domain.CardUserData,
		days int,
		now time.Time,
	) (*domain.CardUserData, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduling service with default parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a scheduling service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// SubmitRating implements the Service interface.
func (s *defaultService) SubmitRating(
	data *domain.CardUserData,
	rating domain.PerformanceRating,
	now time.Time,
) (*domain.CardUserData, error) {
	if data == nil {
		return nil, ErrNilData
	}

	if !rating.IsValid() {
		return nil, fmt.Errorf("%w: unknown rating %d", domain.ErrInvalidRating, int(rating))
	}

	if !data.LastReviewedAt.IsZero() && now.Before(data.LastReviewedAt) {
		return nil, fmt.Errorf(
			"%w: review at %s precedes last review at %s",
			domain.ErrInvalidRating,
			now.Format(time.RFC3339),
			data.LastReviewedAt.Format(time.RFC3339),
		)
	}

	return NextSchedule(data, rating, now, s.params), nil
}

// PostponeReview implements the Service interface.
func (s *defaultService) PostponeReview(
	data *domain.CardUserData,
	days int,
	now time.Time,
) (*domain.CardUserData, error) {
	if data == nil {
		return nil, ErrNilData
	}

	if days < 1 {
		return nil, ErrInvalidDays
	}

	next := data.Clone()
	next.DueAt = data.DueAt.AddDate(0, 0, days)
	next.UpdatedAt = now

	return next, nil
}
