package trainer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/conorfennell/thaiflash/internal/domain"
	"github.com/conorfennell/thaiflash/internal/session"
)

// SpeechLang is the BCP 47 tag used to read Thai text aloud.
const SpeechLang = "th-TH"

// View is a read-only snapshot of everything the learner sees.
type View struct {
	Profiles      []ProfileView
	ActiveProfile *ProfileView
	Settings      domain.Settings
	Fields        []FieldOption

	Categories    []CategoryView
	MasteredCount int
	Mastered      string
	Selection     string
	Available     int
	SelectedTotal int

	Phase    string
	Card     *CardView
	Tracker  string
	Round    int
	Stats    *StatsView
	CanRetry bool
	Status   string
	Warning  string
}

// ProfileView is one entry of the profile picker.
type ProfileView struct {
	ID     string
	Name   string
	Active bool
}

// FieldOption is one toggle of the field settings form.
type FieldOption struct {
	Name     string
	Label    string
	Front    bool
	Back     bool
	BigFront bool
	BigBack  bool
}

// CategoryView is one entry of the category list.
type CategoryView struct {
	Name     string
	Label    string
	Total    int
	Due      int
	Selected bool
	Mastered bool
}

// CardView is the current card split into its two faces.
type CardView struct {
	Category   string
	Front      []FieldView
	Back       []FieldView
	Revealed   bool
	SpeakText  string
	SpeakLang  string
	Repetition int
	Interval   int
	Due        string
}

// FieldView is one displayed line of a card face.
type FieldView struct {
	Name  string
	Label string
	Value string
	Big   bool
}

// StatsView is the running tally of the session.
type StatsView struct {
	Total       int
	Right       int
	Wrong       int
	Percent     int
	PerCategory []CategoryStatsView
}

// CategoryStatsView is the tally of one category.
type CategoryStatsView struct {
	Name     string
	Right    int
	Wrong    int
	Mastered bool
}

// View snapshots the trainer.
func (t *Trainer) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()

	v := View{Status: t.statusLine()}
	for _, p := range t.profiles {
		pv := ProfileView{ID: p.ID, Name: p.Name, Active: p == t.active}
		v.Profiles = append(v.Profiles, pv)
		if pv.Active {
			v.ActiveProfile = &pv
		}
	}
	if t.active == nil {
		v.Phase = session.NotStarted.String()
		return v
	}

	s := t.active.Settings
	v.Settings = s
	v.Fields = fieldOptions(s)
	v.Categories = t.categoryViews(s)
	for _, cat := range t.categories {
		if t.active.IsMastered(cat.Name) {
			v.MasteredCount++
		}
	}
	v.Mastered = fmt.Sprintf("%d / %d", v.MasteredCount, len(t.categories))
	v.Selection = selectionSummary(s)
	v.Available, v.SelectedTotal = t.repo.Available(s.Categories, s.SRSEnabled)

	v.Phase = t.engine.Phase().String()
	v.Round = t.engine.Round()
	if card, ok := t.engine.Current(); ok {
		v.Card = cardView(card, s, t.engine.Revealed())
		v.Tracker = fmt.Sprintf("%d / %d", t.engine.Position()+1, t.engine.Len())
	}
	if stats := t.engine.Stats(); stats != nil {
		v.Stats = t.statsView(stats)
	}
	v.CanRetry = t.engine.Phase() == session.Complete && t.engine.Misses() > 0
	if err := t.engine.Warning(); err != nil {
		v.Warning = err.Error()
	}
	return v
}

// statusLine picks the most relevant message: the last profile action, then
// a vocabulary problem, then the session's own status.
func (t *Trainer) statusLine() string {
	switch {
	case t.status != "":
		return t.status
	case t.vocabStatus != "":
		return t.vocabStatus
	case t.active == nil:
		return StatusNoProfile
	}
	return t.engine.Status()
}

func (t *Trainer) categoryViews(s domain.Settings) []CategoryView {
	selected := make(map[string]bool, len(s.Categories))
	for _, name := range s.Categories {
		selected[name] = true
	}
	counts := t.repo.Categories()
	out := make([]CategoryView, 0, len(counts))
	for _, c := range counts {
		shown := c.Total
		if s.SRSEnabled {
			shown = c.Due
		}
		out = append(out, CategoryView{
			Name:     c.Name,
			Label:    fmt.Sprintf("%s (%d/%d)", c.Name, shown, c.Total),
			Total:    c.Total,
			Due:      c.Due,
			Selected: selected[c.Name],
			Mastered: t.active.IsMastered(c.Name),
		})
	}
	return out
}

func (t *Trainer) statsView(stats *domain.SessionStats) *StatsView {
	sv := &StatsView{
		Total:   stats.Total,
		Right:   stats.Right,
		Wrong:   stats.Wrong,
		Percent: stats.Percent(),
	}
	for _, name := range stats.Categories() {
		cs := stats.PerCategory[name]
		sv.PerCategory = append(sv.PerCategory, CategoryStatsView{
			Name:     name,
			Right:    cs.Right,
			Wrong:    cs.Wrong,
			Mastered: t.active.IsMastered(name),
		})
	}
	return sv
}

func cardView(card *domain.SessionCard, s domain.Settings, revealed bool) *CardView {
	cv := &CardView{
		Category:  card.Category,
		Front:     faceView(card, s.FrontFields, s.BigFieldFront),
		Revealed:  revealed,
		SpeakText: card.Thai,
		SpeakLang: SpeechLang,
	}
	if revealed {
		cv.Back = faceView(card, s.BackFields, s.BigFieldBack)
	}
	if card.SRS != nil {
		cv.Repetition = card.SRS.Repetitions
		cv.Interval = card.SRS.Interval
		cv.Due = card.SRS.Due.String()
	}
	return cv
}

// faceView drops fields the card has no text for.
func faceView(card *domain.SessionCard, enabled []string, big string) []FieldView {
	var out []FieldView
	for _, name := range domain.FaceFields(enabled, big) {
		value := card.Field(name)
		if value == "" {
			continue
		}
		out = append(out, FieldView{
			Name:  name,
			Label: domain.FieldLabel(name),
			Value: value,
			Big:   name == big,
		})
	}
	return out
}

func fieldOptions(s domain.Settings) []FieldOption {
	out := make([]FieldOption, 0, len(domain.Fields))
	for _, name := range domain.Fields {
		out = append(out, FieldOption{
			Name:     name,
			Label:    domain.FieldLabel(name),
			Front:    slices.Contains(s.FrontFields, name),
			Back:     slices.Contains(s.BackFields, name),
			BigFront: s.BigFieldFront == name,
			BigBack:  s.BigFieldBack == name,
		})
	}
	return out
}

func selectionSummary(s domain.Settings) string {
	cats := "All categories"
	if len(s.Categories) > 0 {
		cats = strings.Join(s.Categories, ", ")
	}
	srs := "SRS off"
	if s.SRSEnabled {
		srs = "SRS on"
	}
	order := "Ordered"
	if s.Shuffle {
		order = "Shuffled"
	}
	return cats + " · " + srs + " · " + order
}
