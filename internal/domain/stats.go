package domain

import "math"

// CategoryStats counts ratings for one category.
type CategoryStats struct {
	Right int
	Wrong int
}

// SessionStats aggregates the ratings given since a deck was built.
type SessionStats struct {
	Total       int
	Right       int
	Wrong       int
	PerCategory map[string]*CategoryStats

	// order keeps categories in the order they were first rated.
	order []string
}

// NewSessionStats returns empty stats for a deck of the given size.
func NewSessionStats(total int) *SessionStats {
	return &SessionStats{
		Total:       total,
		PerCategory: make(map[string]*CategoryStats),
	}
}

// Record counts a single rating against the card's category.
func (s *SessionStats) Record(category string, correct bool) {
	bucket, ok := s.PerCategory[category]
	if !ok {
		bucket = &CategoryStats{}
		s.PerCategory[category] = bucket
		s.order = append(s.order, category)
	}
	if correct {
		s.Right++
		bucket.Right++
	} else {
		s.Wrong++
		bucket.Wrong++
	}
}

// Categories returns the rated categories in first-rated order.
func (s *SessionStats) Categories() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Percent is the share of right answers over the deck size, rounded.
func (s *SessionStats) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return int(math.Round(float64(s.Right) / float64(s.Total) * 100))
}
