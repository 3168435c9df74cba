package sm2

import (
	"errors"
	"math"
	"testing"

	"cloud.google.com/go/civil"

	"github.com/conorfennell/thaiflash/internal/domain"
)

var day = civil.Date{Year: 2026, Month: 2, Day: 21}

func TestNextEase(t *testing.T) {
	testCases := []struct {
		name     string
		ease     float64
		quality  Quality
		expected float64
	}{
		{name: "perfect recall raises ease", ease: 2.5, quality: 5, expected: 2.6},
		{name: "right keeps ease", ease: 2.5, quality: Right, expected: 2.5},
		{name: "hesitant recall lowers ease", ease: 2.5, quality: 3, expected: 2.36},
		{name: "wrong lowers ease sharply", ease: 2.5, quality: Wrong, expected: 2.18},
		{name: "blackout is clamped", ease: 1.5, quality: 0, expected: MinEase},
		{name: "floor holds on wrong", ease: MinEase, quality: Wrong, expected: MinEase},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := nextEase(tc.ease, tc.quality)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("Expected ease %.4f, got %.4f", tc.expected, got)
			}
		})
	}
}

func TestUpdateLapse(t *testing.T) {
	start := domain.SrsState{Repetitions: 4, Interval: 30, Ease: 2.5, Due: day}

	for q := MinQuality; q < passing; q++ {
		next, err := Update(start, q, day)
		if err != nil {
			t.Fatalf("Update(%d) returned an unexpected error: %v", q, err)
		}
		if next.Repetitions != 0 {
			t.Errorf("quality %d: expected repetitions 0, got %d", q, next.Repetitions)
		}
		if next.Interval != 1 {
			t.Errorf("quality %d: expected interval 1, got %d", q, next.Interval)
		}
		if next.Due != day.AddDays(1) {
			t.Errorf("quality %d: expected due %s, got %s", q, day.AddDays(1), next.Due)
		}
	}
}

func TestUpdateIntervalSchedule(t *testing.T) {
	state := NewState(day)

	// First success after reset.
	state, _ = Update(state, Right, day)
	if state.Repetitions != 1 || state.Interval != 1 {
		t.Fatalf("Expected reps 1 interval 1, got reps %d interval %d", state.Repetitions, state.Interval)
	}

	state, _ = Update(state, Right, day)
	if state.Repetitions != 2 || state.Interval != 6 {
		t.Fatalf("Expected reps 2 interval 6, got reps %d interval %d", state.Repetitions, state.Interval)
	}

	prev := state
	state, _ = Update(state, Right, day)
	want := int(math.Round(float64(prev.Interval) * prev.Ease))
	if state.Repetitions != 3 || state.Interval != want {
		t.Fatalf("Expected reps 3 interval %d, got reps %d interval %d", want, state.Repetitions, state.Interval)
	}
	if state.Interval != 15 {
		t.Errorf("Expected 6 * 2.5 = 15 days, got %d", state.Interval)
	}
}

func TestUpdateUsesPreviousEase(t *testing.T) {
	state := domain.SrsState{Repetitions: 2, Interval: 6, Ease: 2.0, Due: day}

	// Quality 3 lowers ease, but the interval is computed from the old ease.
	next, err := Update(state, 3, day)
	if err != nil {
		t.Fatalf("Update returned an unexpected error: %v", err)
	}
	if next.Interval != 12 {
		t.Errorf("Expected interval 12, got %d", next.Interval)
	}
	if math.Abs(next.Ease-1.86) > 1e-9 {
		t.Errorf("Expected ease 1.86, got %.4f", next.Ease)
	}
}

func TestUpdateEaseNeverBelowFloor(t *testing.T) {
	state := NewState(day)
	ratings := []Quality{0, 1, 2, 0, 5, 0, 3, 1, 0, 0, 4, 0}
	for i, q := range ratings {
		var err error
		state, err = Update(state, q, day)
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
		if state.Ease < MinEase {
			t.Fatalf("step %d: ease %.4f fell below %.1f", i, state.Ease, MinEase)
		}
		if state.Interval < 0 || state.Repetitions < 0 {
			t.Fatalf("step %d: negative state %+v", i, state)
		}
	}
}

func TestUpdateDueDate(t *testing.T) {
	testCases := []struct {
		name  string
		today civil.Date
		state domain.SrsState
	}{
		{name: "month boundary", today: civil.Date{Year: 2026, Month: 1, Day: 31}, state: domain.SrsState{Repetitions: 1, Interval: 1, Ease: 2.5}},
		{name: "leap day", today: civil.Date{Year: 2028, Month: 2, Day: 28}, state: domain.SrsState{Repetitions: 0, Interval: 0, Ease: 2.5}},
		{name: "year boundary", today: civil.Date{Year: 2026, Month: 12, Day: 20}, state: domain.SrsState{Repetitions: 5, Interval: 20, Ease: 2.5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Update(tc.state, Right, tc.today)
			if err != nil {
				t.Fatalf("Update returned an unexpected error: %v", err)
			}
			if want := tc.today.AddDays(next.Interval); next.Due != want {
				t.Errorf("Expected due %s, got %s", want, next.Due)
			}
			if next.Due.Before(tc.today) {
				t.Errorf("Due %s is before review day %s", next.Due, tc.today)
			}
		})
	}
}

func TestUpdateRejectsInvalidQuality(t *testing.T) {
	state := NewState(day)
	for _, q := range []Quality{-1, 6, 42} {
		next, err := Update(state, q, day)
		if !errors.Is(err, ErrInvalidQuality) {
			t.Errorf("quality %d: expected ErrInvalidQuality, got %v", q, err)
		}
		if next != state {
			t.Errorf("quality %d: expected state to be unchanged, got %+v", q, next)
		}
	}
}

func TestIsDue(t *testing.T) {
	if !IsDue(domain.SrsState{Due: day}, day) {
		t.Error("Expected a card due today to be due")
	}
	if !IsDue(domain.SrsState{Due: day.AddDays(-3)}, day) {
		t.Error("Expected an overdue card to be due")
	}
	if IsDue(domain.SrsState{Due: day.AddDays(1)}, day) {
		t.Error("Expected a card due tomorrow not to be due")
	}
}
