package session

import (
	"fmt"
	"log/slog"

	"cloud.google.com/go/civil"

	"github.com/conorfennell/thaiflash/internal/deck"
	"github.com/conorfennell/thaiflash/internal/domain"
	"github.com/conorfennell/thaiflash/internal/mastery"
	"github.com/conorfennell/thaiflash/internal/sm2"
)

// Phase is the engine's position in the study lifecycle.
type Phase int

const (
	NotStarted Phase = iota
	InProgress
	Complete
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not-started"
	case InProgress:
		return "in-progress"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Status messages shown to the learner.
const (
	StatusIdle     = "Pick categories and start a session."
	StatusComplete = "Session complete."
	StatusSaveFail = "Could not save progress."
)

// Saver persists scheduling progress. SaveCardState stores one rated card;
// SaveProfile stores the whole profile when a pass completes.
type Saver interface {
	SaveCardState(profileID, key string, state domain.SrsState) error
	SaveProfile(profile domain.Profile) error
}

// Config holds the engine's collaborators.
type Config struct {
	Profile *domain.Profile
	Builder *deck.Builder
	Saver   Saver
	Today   func() civil.Date // nil uses sm2.Today
	Logger  *slog.Logger      // nil uses slog.Default
}

// Engine drives one learner through a deck: flipping, rating, replaying
// missed cards and tallying statistics. It is not safe for concurrent use.
type Engine struct {
	profile *domain.Profile
	builder *deck.Builder
	saver   Saver
	today   func() civil.Date
	logger  *slog.Logger

	phase    Phase
	deck     *deck.Deck
	cards    []*domain.SessionCard
	misses   []*domain.SessionCard
	pos      int
	revealed bool
	round    int
	shuffle  bool
	status   string
	warning  error
}

// New creates an engine in the NotStarted phase.
func New(cfg Config) *Engine {
	if cfg.Today == nil {
		cfg.Today = sm2.Today
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Profile.SrsStates == nil {
		cfg.Profile.SrsStates = make(map[string]domain.SrsState)
	}
	return &Engine{
		profile: cfg.Profile,
		builder: cfg.Builder,
		saver:   cfg.Saver,
		today:   cfg.Today,
		logger:  cfg.Logger.With("component", "session", "profile_id", cfg.Profile.ID),
		round:   1,
		status:  StatusIdle,
	}
}

// Start begins a pass over a freshly built deck. It may be called in any
// phase; the previous deck, stats and miss list are discarded. An empty
// deck leaves the engine in progress with no current card.
func (e *Engine) Start(d *deck.Deck) {
	if d == nil {
		return
	}
	e.phase = InProgress
	e.deck = d
	e.cards = d.Cards
	e.misses = nil
	e.pos = 0
	e.revealed = false
	e.round = 1
	e.shuffle = d.Options.Shuffle
	e.status = d.StatusMessage()
	e.warning = nil
	e.logger.Info("session started", "cards", len(d.Cards), "srs", d.Options.SRSEnabled, "shuffle", d.Options.Shuffle)
}

// Flip toggles between the front and both faces of the current card.
func (e *Engine) Flip() {
	if e.phase != InProgress {
		return
	}
	e.revealed = !e.revealed
}

// Rate records a recall rating for the current card, reschedules it,
// persists the profile and moves on. Outside a pass with a current card it
// does nothing. An out-of-range quality returns sm2.ErrInvalidQuality and
// changes nothing.
func (e *Engine) Rate(q sm2.Quality) error {
	card, ok := e.Current()
	if !ok {
		return nil
	}
	next, err := sm2.Update(*card.SRS, q, e.today())
	if err != nil {
		return err
	}

	correct := q.Correct()
	e.deck.Stats.Record(card.Category, correct)
	if !correct {
		e.misses = append(e.misses, card)
	}
	*card.SRS = next
	e.profile.SrsStates[card.Key] = next
	e.saveCard(card.Key, next)

	if e.pos < len(e.cards)-1 {
		e.pos++
		e.revealed = false
		return nil
	}
	e.complete()
	return nil
}

// ReplayMisses starts another round over the cards rated wrong in the pass
// just completed. It reports whether a round was started.
func (e *Engine) ReplayMisses() bool {
	if e.phase != Complete || len(e.misses) == 0 {
		return false
	}
	e.cards = e.builder.Replay(e.misses, e.shuffle)
	e.misses = nil
	e.round++
	e.pos = 0
	e.revealed = false
	e.phase = InProgress
	e.status = fmt.Sprintf("Wrong review round %d.", e.round)
	e.logger.Info("replaying missed cards", "round", e.round, "cards", len(e.cards))
	return true
}

// Exit abandons the session. Ratings already given stay persisted.
func (e *Engine) Exit() {
	e.phase = NotStarted
	e.deck = nil
	e.cards = nil
	e.misses = nil
	e.pos = 0
	e.revealed = false
	e.round = 1
	e.status = StatusIdle
}

// SetShuffle changes the shuffle preference used by later replay rounds.
func (e *Engine) SetShuffle(shuffle bool) {
	e.shuffle = shuffle
}

func (e *Engine) complete() {
	e.phase = Complete
	e.revealed = false
	e.status = StatusComplete

	mastered := mastery.Mastered(e.deck.Stats, e.deck.InDeck)
	if added := mastery.Apply(e.profile, mastered); added > 0 {
		e.logger.Info("categories mastered", "categories", mastered, "new", added)
	}
	e.save()
	e.logger.Info("session complete",
		"round", e.round,
		"right", e.deck.Stats.Right,
		"wrong", e.deck.Stats.Wrong,
		"misses", len(e.misses),
	)
}

// Saves are best-effort: a failure is reported but in-memory state stays
// authoritative.
func (e *Engine) save() {
	if e.saver == nil {
		return
	}
	e.saveFailed(e.saver.SaveProfile(*e.profile))
}

func (e *Engine) saveCard(key string, state domain.SrsState) {
	if e.saver == nil {
		return
	}
	e.saveFailed(e.saver.SaveCardState(e.profile.ID, key, state))
}

func (e *Engine) saveFailed(err error) {
	if err == nil {
		return
	}
	e.logger.Warn("failed to persist progress", "error", err)
	e.warning = err
	e.status = StatusSaveFail
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() Phase { return e.phase }

// Current returns the card being studied, if any.
func (e *Engine) Current() (*domain.SessionCard, bool) {
	if e.phase != InProgress || e.pos >= len(e.cards) {
		return nil, false
	}
	return e.cards[e.pos], true
}

// Revealed reports whether the back of the current card is showing.
func (e *Engine) Revealed() bool { return e.revealed }

// Position is the zero-based index of the current card in this round.
func (e *Engine) Position() int { return e.pos }

// Len is the number of cards in this round.
func (e *Engine) Len() int { return len(e.cards) }

// Round is 1 for a freshly built deck and grows with each replay.
func (e *Engine) Round() int { return e.round }

// Deck returns the deck the session was started with, or nil before Start.
func (e *Engine) Deck() *deck.Deck { return e.deck }

// Stats returns the running statistics, or nil before Start.
func (e *Engine) Stats() *domain.SessionStats {
	if e.deck == nil {
		return nil
	}
	return e.deck.Stats
}

// Misses is the number of cards waiting for a replay round.
func (e *Engine) Misses() int { return len(e.misses) }

// Status is the message describing the last transition.
func (e *Engine) Status() string { return e.status }

// Warning returns the last persistence failure, if any.
func (e *Engine) Warning() error { return e.warning }
