package domain

import (
	"slices"
	"time"
)

// Field names that can be shown on either face of a card.
const (
	FieldThai         = "thai"
	FieldEnglish      = "english"
	FieldRomanTone    = "roman_tone"
	FieldPhoneticEasy = "phonetic_easy"
)

// Fields lists every displayable field in canonical order.
var Fields = []string{FieldThai, FieldEnglish, FieldRomanTone, FieldPhoneticEasy}

// FieldLabel returns the human label for a field name.
func FieldLabel(name string) string {
	switch name {
	case FieldThai:
		return "Thai"
	case FieldEnglish:
		return "English"
	case FieldRomanTone:
		return "Roman"
	case FieldPhoneticEasy:
		return "Phonetic"
	}
	return name
}

// Settings holds the per-profile study and display preferences.
type Settings struct {
	Categories    []string `json:"categories"`
	Shuffle       bool     `json:"shuffle"`
	SRSEnabled    bool     `json:"srsEnabled"`
	FrontFields   []string `json:"frontFields" validate:"dive,oneof=thai english roman_tone phonetic_easy"`
	BackFields    []string `json:"backFields" validate:"dive,oneof=thai english roman_tone phonetic_easy"`
	BigFieldFront string   `json:"bigFieldFront" validate:"omitempty,oneof=thai english roman_tone phonetic_easy"`
	BigFieldBack  string   `json:"bigFieldBack" validate:"omitempty,oneof=thai english roman_tone phonetic_easy"`
}

// DefaultSettings returns the settings given to a newly created profile.
func DefaultSettings() Settings {
	return Settings{
		Categories:    []string{"Greetings / Basics"},
		FrontFields:   []string{FieldThai, FieldRomanTone, FieldPhoneticEasy},
		BackFields:    []string{FieldEnglish, FieldRomanTone},
		BigFieldFront: FieldRomanTone,
		BigFieldBack:  FieldEnglish,
	}
}

// Profile is the unit of persistence: one learner's scheduling state,
// mastered categories and preferences.
type Profile struct {
	ID        string
	Name      string
	CreatedAt time.Time
	LastUsed  time.Time
	Settings  Settings
	SrsStates map[string]SrsState
	Mastered  map[string]struct{}
}

// NewProfile returns a profile with default settings and empty state.
func NewProfile(id, name string, now time.Time) Profile {
	return Profile{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		LastUsed:  now,
		Settings:  DefaultSettings(),
		SrsStates: make(map[string]SrsState),
		Mastered:  make(map[string]struct{}),
	}
}

// IsMastered reports whether the category has been mastered.
func (p *Profile) IsMastered(category string) bool {
	_, ok := p.Mastered[category]
	return ok
}

// MasteredList returns mastered category names, sorted.
func (p *Profile) MasteredList() []string {
	out := make([]string, 0, len(p.Mastered))
	for name := range p.Mastered {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// FaceFields orders the enabled fields of one card face. The big field is
// always first, and is shown even when it is not in enabled.
func FaceFields(enabled []string, big string) []string {
	ordered := make([]string, 0, len(enabled)+1)
	if big != "" {
		ordered = append(ordered, big)
	}
	for _, f := range enabled {
		if f == big {
			continue
		}
		ordered = append(ordered, f)
	}
	return ordered
}
