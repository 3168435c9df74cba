package domain

import "cloud.google.com/go/civil"

// VocabItem is a single vocabulary entry as it appears in the source data.
type VocabItem struct {
	Thai         string `json:"thai" validate:"required"`
	English      string `json:"english" validate:"required"`
	RomanTone    string `json:"roman_tone"`
	PhoneticEasy string `json:"phonetic_easy"`
}

// Category groups vocabulary items under a name.
type Category struct {
	Name  string      `json:"category" validate:"required"`
	Items []VocabItem `json:"items" validate:"dive"`
}

// CardID identifies a card by its position and content within the source
// data. Two IDs are equal when all four fields are equal.
type CardID struct {
	Category string
	Index    int
	Thai     string
	English  string
}

// SrsState is the scheduling state of a single card.
type SrsState struct {
	Repetitions int        `json:"repetitions"`
	Interval    int        `json:"interval"`
	Ease        float64    `json:"ease"`
	Due         civil.Date `json:"due"`
}

// SessionCard is the view of a card used while a deck is being studied.
// SRS points at the state that rating a card mutates.
type SessionCard struct {
	ID           CardID
	Key          string
	Category     string
	Thai         string
	English      string
	RomanTone    string
	PhoneticEasy string
	SRS          *SrsState
}

// Field returns the display value for one of the field names in Fields.
func (c *SessionCard) Field(name string) string {
	switch name {
	case FieldThai:
		return c.Thai
	case FieldEnglish:
		return c.English
	case FieldRomanTone:
		return c.RomanTone
	case FieldPhoneticEasy:
		return c.PhoneticEasy
	}
	return ""
}
