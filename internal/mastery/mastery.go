package mastery

import "github.com/conorfennell/thaiflash/internal/domain"

// Mastered returns, in first-rated order, the categories whose cards in the
// deck were all rated correct. inDeck holds the number of cards each
// category contributed to the deck; the category's full size is not used,
// so a due-only pass masters a category on the cards it reviewed.
func Mastered(stats *domain.SessionStats, inDeck map[string]int) []string {
	var out []string
	for _, name := range stats.Categories() {
		bucket := stats.PerCategory[name]
		if bucket.Wrong == 0 && bucket.Right == inDeck[name] {
			out = append(out, name)
		}
	}
	return out
}

// Apply adds the categories to the profile's mastered set and returns how
// many were not already there.
func Apply(profile *domain.Profile, categories []string) int {
	if profile.Mastered == nil {
		profile.Mastered = make(map[string]struct{})
	}
	added := 0
	for _, name := range categories {
		if _, ok := profile.Mastered[name]; ok {
			continue
		}
		profile.Mastered[name] = struct{}{}
		added++
	}
	return added
}
