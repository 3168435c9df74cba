package sm2

import (
	"errors"
	"math"
	"time"

	"cloud.google.com/go/civil"

	"github.com/conorfennell/thaiflash/internal/domain"
)

// Quality is the user's recall rating for a card review, from 0 (blackout)
// to 5 (perfect recall). Ratings of 3 and above count as correct.
type Quality int

const (
	MinQuality Quality = 0
	MaxQuality Quality = 5

	// Wrong and Right are the two ratings the trainer buttons send.
	Wrong Quality = 2
	Right Quality = 4

	passing Quality = 3
)

const (
	DefaultEase = 2.5
	MinEase     = 1.3
)

// ErrInvalidQuality is returned for ratings outside [MinQuality, MaxQuality].
var ErrInvalidQuality = errors.New("sm2: quality out of range 0-5")

// Valid reports whether q is inside the accepted rating range.
func (q Quality) Valid() bool {
	return q >= MinQuality && q <= MaxQuality
}

// Correct reports whether the rating counts as a successful recall.
func (q Quality) Correct() bool {
	return q >= passing
}

// Today returns the current calendar date in UTC.
func Today() civil.Date {
	return civil.DateOf(time.Now().UTC())
}

// NewState returns the state of a card that has never been reviewed.
// It is due on the given day.
func NewState(today civil.Date) domain.SrsState {
	return domain.SrsState{
		Repetitions: 0,
		Interval:    0,
		Ease:        DefaultEase,
		Due:         today,
	}
}

// IsDue reports whether a card with this state should be reviewed today.
func IsDue(state domain.SrsState, today civil.Date) bool {
	return !state.Due.After(today)
}

// Update calculates the next scheduling state after a review on today.
// The input is not modified; an invalid quality returns it unchanged.
func Update(state domain.SrsState, q Quality, today civil.Date) (domain.SrsState, error) {
	if !q.Valid() {
		return state, ErrInvalidQuality
	}

	next := state
	if !q.Correct() {
		// A lapse restarts learning with a one day interval.
		next.Repetitions = 0
		next.Interval = 1
	} else {
		next.Repetitions++
		switch next.Repetitions {
		case 1:
			next.Interval = 1
		case 2:
			next.Interval = 6
		default:
			next.Interval = int(math.Round(float64(state.Interval) * state.Ease))
		}
	}

	// Ease moves on every review, lapses included.
	next.Ease = nextEase(state.Ease, q)
	next.Due = today.AddDays(next.Interval)
	return next, nil
}

// nextEase applies the SM-2 ease formula, clamped at MinEase.
func nextEase(ease float64, q Quality) float64 {
	miss := float64(MaxQuality - q)
	return math.Max(MinEase, ease+0.1-miss*(0.08+miss*0.02))
}
