package trainer

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/conorfennell/thaiflash/internal/deck"
	"github.com/conorfennell/thaiflash/internal/domain"
	"github.com/conorfennell/thaiflash/internal/repository"
	"github.com/conorfennell/thaiflash/internal/session"
	"github.com/conorfennell/thaiflash/internal/sm2"
)

var (
	ErrNoProfile       = errors.New("trainer: no active profile")
	ErrProfileNotFound = errors.New("trainer: profile not found")
	ErrEmptyName       = errors.New("trainer: profile name is empty")
)

// Status messages for profile and settings actions.
const (
	StatusNoProfile = "Create or pick a profile to start."
	StatusSRSReset  = "SRS reset for this profile."
	StatusSaveFail  = "Could not save progress."
)

// Store is the persistence collaborator. It is satisfied by *storage.DB.
type Store interface {
	LoadProfiles() ([]domain.Profile, error)
	SaveProfile(profile domain.Profile) error
	SaveCardState(profileID, key string, state domain.SrsState) error
	DeleteProfile(id string) error
	ActiveProfileID() (string, bool, error)
	SetActiveProfileID(id string) error
	ClearActiveProfileID() error
}

// Config holds the trainer's collaborators.
type Config struct {
	Store       Store
	Categories  []domain.Category
	VocabStatus string

	Today  func() civil.Date // nil uses sm2.Today
	Now    func() time.Time  // nil uses time.Now
	Rand   *rand.Rand        // nil uses the global generator
	Logger *slog.Logger      // nil uses slog.Default
}

// Trainer is the session context for one process: the loaded vocabulary,
// every profile, the active one and its session engine. Each method is a
// single user action and runs to completion before the next starts.
type Trainer struct {
	mu sync.Mutex

	store       Store
	categories  []domain.Category
	vocabStatus string
	today       func() civil.Date
	now         func() time.Time
	rng         *rand.Rand
	logger      *slog.Logger
	validate    *validator.Validate

	profiles []*domain.Profile
	active   *domain.Profile
	repo     *repository.Repository
	builder  *deck.Builder
	engine   *session.Engine
	status   string
}

// New loads the stored profiles and restores the active one.
func New(cfg Config) (*Trainer, error) {
	if cfg.Today == nil {
		cfg.Today = sm2.Today
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	t := &Trainer{
		store:       cfg.Store,
		categories:  cfg.Categories,
		vocabStatus: cfg.VocabStatus,
		today:       cfg.Today,
		now:         cfg.Now,
		rng:         cfg.Rand,
		logger:      cfg.Logger.With("component", "trainer"),
		validate:    validator.New(),
	}

	profiles, err := t.store.LoadProfiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	for i := range profiles {
		p := profiles[i]
		if p.SrsStates == nil {
			p.SrsStates = make(map[string]domain.SrsState)
		}
		if p.Mastered == nil {
			p.Mastered = make(map[string]struct{})
		}
		t.profiles = append(t.profiles, &p)
	}

	id, ok, err := t.store.ActiveProfileID()
	if err != nil {
		return nil, fmt.Errorf("failed to load active profile: %w", err)
	}
	if ok {
		if p := t.find(id); p != nil {
			t.activate(p)
		}
	}
	t.logger.Info("Trainer ready", "profiles", len(t.profiles), "categories", len(t.categories), "active", t.activeID())
	return t, nil
}

// CreateProfile adds a profile with default settings and makes it active.
func (t *Trainer) CreateProfile(name string) (domain.Profile, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Profile{}, ErrEmptyName
	}
	p := domain.NewProfile(uuid.NewString(), name, t.now())
	t.profiles = append(t.profiles, &p)
	t.activate(&p)
	t.persist(&p)
	t.setActivePointer(p.ID)
	t.logger.Info("Profile created", "profile_id", p.ID)
	return p, nil
}

// UseProfile makes an existing profile active.
func (t *Trainer) UseProfile(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.find(id)
	if p == nil {
		return ErrProfileNotFound
	}
	t.activate(p)
	t.setActivePointer(p.ID)
	t.touch()
	return nil
}

// RenameProfile changes a profile's display name.
func (t *Trainer) RenameProfile(id, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	p := t.find(id)
	if p == nil {
		return ErrProfileNotFound
	}
	p.Name = name
	t.persist(p)
	return nil
}

// DeleteProfile removes a profile. Deleting the active profile leaves no
// profile active.
func (t *Trainer) DeleteProfile(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := -1
	for i, p := range t.profiles {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrProfileNotFound
	}
	t.profiles = append(t.profiles[:idx], t.profiles[idx+1:]...)
	if err := t.store.DeleteProfile(id); err != nil {
		t.warn("failed to delete profile", err)
	}
	if t.activeID() == id {
		t.active, t.repo, t.builder, t.engine = nil, nil, nil, nil
		if err := t.store.ClearActiveProfileID(); err != nil {
			t.warn("failed to clear active profile", err)
		}
	}
	t.logger.Info("Profile deleted", "profile_id", id)
	return nil
}

// UpdateSettings replaces the active profile's preferences.
func (t *Trainer) UpdateSettings(s domain.Settings) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return ErrNoProfile
	}
	if err := t.validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	t.active.Settings = s
	t.engine.SetShuffle(s.Shuffle)
	t.touch()
	return nil
}

// SelectAll selects every category.
func (t *Trainer) SelectAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return ErrNoProfile
	}
	names := make([]string, 0, len(t.categories))
	for _, cat := range t.categories {
		names = append(names, cat.Name)
	}
	t.active.Settings.Categories = names
	t.touch()
	return nil
}

// ClearSelection empties the selection, which studies every category.
func (t *Trainer) ClearSelection() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return ErrNoProfile
	}
	t.active.Settings.Categories = nil
	t.touch()
	return nil
}

// ResetSRS forgets every card's scheduling state for the active profile.
func (t *Trainer) ResetSRS() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return ErrNoProfile
	}
	// Cleared in place: the repository reads the same map.
	clear(t.active.SrsStates)
	t.persist(t.active)
	t.status = StatusSRSReset
	t.logger.Info("SRS state reset", "profile_id", t.active.ID)
	return nil
}

// StartSession builds a deck from the active profile's settings and starts
// studying it.
func (t *Trainer) StartSession() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return ErrNoProfile
	}
	s := t.active.Settings
	d := t.builder.Build(deck.Options{
		Categories: s.Categories,
		SRSEnabled: s.SRSEnabled,
		Shuffle:    s.Shuffle,
	})
	t.engine.Start(d)
	t.status = ""
	t.touch()
	return nil
}

// Flip turns the current card over.
func (t *Trainer) Flip() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.engine != nil {
		t.engine.Flip()
	}
}

// Rate rates the current card.
func (t *Trainer) Rate(q sm2.Quality) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.engine == nil {
		return nil
	}
	t.status = ""
	return t.engine.Rate(q)
}

// ReplayMisses starts a round over the cards missed in the last pass.
func (t *Trainer) ReplayMisses() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.engine == nil {
		return false
	}
	t.status = ""
	return t.engine.ReplayMisses()
}

// ExitSession leaves the current session.
func (t *Trainer) ExitSession() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.engine != nil {
		t.engine.Exit()
	}
	t.status = ""
}

func (t *Trainer) activate(p *domain.Profile) {
	if t.engine != nil {
		t.engine.Exit()
	}
	t.active = p
	t.repo = repository.New(t.categories, p.SrsStates, t.today)
	t.builder = deck.NewBuilder(t.repo, t.rng)
	t.engine = session.New(session.Config{
		Profile: p,
		Builder: t.builder,
		Saver:   t.store,
		Today:   t.today,
		Logger:  t.logger,
	})
	t.status = ""
}

// touch records use of the active profile and saves it.
func (t *Trainer) touch() {
	t.active.LastUsed = t.now()
	t.persist(t.active)
}

func (t *Trainer) persist(p *domain.Profile) {
	if err := t.store.SaveProfile(*p); err != nil {
		t.warn("failed to persist profile", err)
	}
}

func (t *Trainer) setActivePointer(id string) {
	if err := t.store.SetActiveProfileID(id); err != nil {
		t.warn("failed to persist active profile", err)
	}
}

func (t *Trainer) warn(msg string, err error) {
	t.logger.Warn(msg, "profile_id", t.activeID(), "error", err)
	t.status = StatusSaveFail
}

func (t *Trainer) find(id string) *domain.Profile {
	for _, p := range t.profiles {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (t *Trainer) activeID() string {
	if t.active == nil {
		return ""
	}
	return t.active.ID
}
