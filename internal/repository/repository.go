package repository

import (
	"cloud.google.com/go/civil"

	"github.com/conorfennell/thaiflash/internal/cardkey"
	"github.com/conorfennell/thaiflash/internal/domain"
	"github.com/conorfennell/thaiflash/internal/sm2"
)

// Lookup is the result of resolving a card's scheduling state.
// Found is false when State is a freshly built default.
type Lookup struct {
	State domain.SrsState
	Found bool
}

// CategoryCount summarizes one category for the selection screen.
type CategoryCount struct {
	Name  string
	Total int
	Due   int
}

// Repository joins vocabulary with a profile's persisted scheduling state.
// It never writes to the state map.
type Repository struct {
	categories []domain.Category
	states     map[string]domain.SrsState
	today      func() civil.Date
}

// New creates a repository over the given data. A nil clock uses sm2.Today.
func New(categories []domain.Category, states map[string]domain.SrsState, today func() civil.Date) *Repository {
	if today == nil {
		today = sm2.Today
	}
	return &Repository{
		categories: categories,
		states:     states,
		today:      today,
	}
}

// Today returns the repository's notion of the current date.
func (r *Repository) Today() civil.Date {
	return r.today()
}

// LookupOrDefault returns the persisted state for key, or a default state
// due today when none exists.
func (r *Repository) LookupOrDefault(key string) Lookup {
	if state, ok := r.states[key]; ok {
		return Lookup{State: state, Found: true}
	}
	return Lookup{State: sm2.NewState(r.today())}
}

// IsDue reports whether a card with this state is due today.
func (r *Repository) IsDue(state domain.SrsState) bool {
	return sm2.IsDue(state, r.today())
}

// Cards returns a fresh SessionCard for every item in the selected
// categories, in category-then-item order. An empty selection means all
// categories; unknown names are ignored.
func (r *Repository) Cards(selected []string) []*domain.SessionCard {
	var cards []*domain.SessionCard
	for _, cat := range r.selectedCategories(selected) {
		for idx, item := range cat.Items {
			id := cardkey.Of(cat.Name, idx, item)
			key := cardkey.Key(id)
			state := r.LookupOrDefault(key).State
			cards = append(cards, &domain.SessionCard{
				ID:           id,
				Key:          key,
				Category:     cat.Name,
				Thai:         item.Thai,
				English:      item.English,
				RomanTone:    item.RomanTone,
				PhoneticEasy: item.PhoneticEasy,
				SRS:          &state,
			})
		}
	}
	return cards
}

// Categories returns the total and due counts of every category in source
// order.
func (r *Repository) Categories() []CategoryCount {
	counts := make([]CategoryCount, 0, len(r.categories))
	for _, cat := range r.categories {
		counts = append(counts, CategoryCount{
			Name:  cat.Name,
			Total: len(cat.Items),
			Due:   r.dueIn(cat),
		})
	}
	return counts
}

// Available returns how many cards a deck built from the selection would
// hold, and how many cards the selection has in total.
func (r *Repository) Available(selected []string, srsEnabled bool) (available, total int) {
	for _, cat := range r.selectedCategories(selected) {
		total += len(cat.Items)
		if srsEnabled {
			available += r.dueIn(cat)
		}
	}
	if !srsEnabled {
		available = total
	}
	return available, total
}

func (r *Repository) dueIn(cat domain.Category) int {
	due := 0
	for idx, item := range cat.Items {
		key := cardkey.Key(cardkey.Of(cat.Name, idx, item))
		if r.IsDue(r.LookupOrDefault(key).State) {
			due++
		}
	}
	return due
}

func (r *Repository) selectedCategories(selected []string) []domain.Category {
	if len(selected) == 0 {
		return r.categories
	}
	want := make(map[string]bool, len(selected))
	for _, name := range selected {
		want[name] = true
	}
	var out []domain.Category
	for _, cat := range r.categories {
		if want[cat.Name] {
			out = append(out, cat)
		}
	}
	return out
}
