package deck

import (
	"math/rand/v2"

	"github.com/conorfennell/thaiflash/internal/domain"
)

// Source supplies cards and due checks to the builder. It is satisfied by
// *repository.Repository.
type Source interface {
	Cards(selected []string) []*domain.SessionCard
	IsDue(state domain.SrsState) bool
}

// Options selects what goes into a deck.
type Options struct {
	Categories []string
	SRSEnabled bool
	Shuffle    bool
}

// Deck is the ordered set of cards for one study pass plus the stats that
// rating them will fill in.
type Deck struct {
	Cards   []*domain.SessionCard
	Stats   *domain.SessionStats
	Options Options

	// InDeck counts the cards of each category present in the deck.
	InDeck map[string]int
}

// Empty reports whether the deck was built with no cards.
func (d *Deck) Empty() bool {
	return len(d.Cards) == 0
}

// StatusMessage explains an empty deck; it is blank otherwise.
func (d *Deck) StatusMessage() string {
	if !d.Empty() {
		return ""
	}
	if d.Options.SRSEnabled {
		return StatusNoDue
	}
	return StatusNoCards
}

// Messages explaining an empty deck.
const (
	StatusNoDue   = "No due cards right now."
	StatusNoCards = "No cards available. Select more categories."
)

// Builder constructs decks from a card source.
type Builder struct {
	source Source
	rng    *rand.Rand
}

// NewBuilder creates a builder. A nil rng uses the global generator.
func NewBuilder(source Source, rng *rand.Rand) *Builder {
	return &Builder{source: source, rng: rng}
}

// Build returns a fresh deck for the options. With SRS enabled only due
// cards are kept, and the deck is empty when none are due.
func (b *Builder) Build(opts Options) *Deck {
	all := b.source.Cards(opts.Categories)

	cards := all
	if opts.SRSEnabled {
		cards = make([]*domain.SessionCard, 0, len(all))
		for _, c := range all {
			if b.source.IsDue(*c.SRS) {
				cards = append(cards, c)
			}
		}
	}
	if opts.Shuffle {
		b.shuffle(cards)
	}

	inDeck := make(map[string]int)
	for _, c := range cards {
		inDeck[c.Category]++
	}

	return &Deck{
		Cards:   cards,
		Stats:   domain.NewSessionStats(len(cards)),
		Options: opts,
		InDeck:  inDeck,
	}
}

// Replay returns the order for a replay round over missed cards. The input
// slice is left untouched.
func (b *Builder) Replay(misses []*domain.SessionCard, shuffle bool) []*domain.SessionCard {
	cards := make([]*domain.SessionCard, len(misses))
	copy(cards, misses)
	if shuffle {
		b.shuffle(cards)
	}
	return cards
}

// shuffle is an in-place Fisher-Yates permutation.
func (b *Builder) shuffle(cards []*domain.SessionCard) {
	swap := func(i, j int) { cards[i], cards[j] = cards[j], cards[i] }
	if b.rng != nil {
		b.rng.Shuffle(len(cards), swap)
		return
	}
	rand.Shuffle(len(cards), swap)
}
