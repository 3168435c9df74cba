package web

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/thaiflash/internal/domain"
	"github.com/conorfennell/thaiflash/internal/storage"
	"github.com/conorfennell/thaiflash/internal/trainer"
)

func newTestServer(t *testing.T) (*Server, *trainer.Trainer) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tr, err := trainer.New(trainer.Config{
		Store: db,
		Categories: []domain.Category{
			{Name: "Greetings / Basics", Items: []domain.VocabItem{
				{Thai: "สวัสดี", English: "hello", RomanTone: "sà-wàt-dii"},
			}},
			{Name: "Food", Items: []domain.VocabItem{
				{Thai: "ข้าว", English: "rice"},
			}},
		},
		Today:  func() civil.Date { return civil.Date{Year: 2026, Month: 3, Day: 1} },
		Logger: logger,
	})
	require.NoError(t, err)

	srv, err := NewServer(tr, logger)
	require.NoError(t, err)
	return srv, tr
}

func post(t *testing.T, srv http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, srv http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestIndexWithoutProfile(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), trainer.StatusNoProfile)
	assert.NotContains(t, rec.Body.String(), `action="/session/start"`)
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(t, srv, "/static/app.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "speechSynthesis")
}

func TestStudyOverHTTP(t *testing.T) {
	srv, tr := newTestServer(t)

	rec := post(t, srv, "/profiles", url.Values{"name": {"Ann"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	body := get(t, srv, "/").Body.String()
	assert.Contains(t, body, "Ann")
	assert.Contains(t, body, "Greetings / Basics (1/1)")

	require.Equal(t, http.StatusSeeOther, post(t, srv, "/session/start", nil).Code)
	body = get(t, srv, "/").Body.String()
	assert.Contains(t, body, "1 / 1")
	assert.Contains(t, body, `data-lang="th-TH"`)
	assert.Contains(t, body, "sà-wàt-dii")
	assert.NotContains(t, body, "hello")

	post(t, srv, "/session/flip", nil)
	assert.Contains(t, get(t, srv, "/").Body.String(), "hello")

	rec = post(t, srv, "/session/rate", url.Values{"quality": {"9"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = post(t, srv, "/session/rate", url.Values{"quality": {"x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusSeeOther, post(t, srv, "/session/rate", url.Values{"quality": {"2"}}).Code)
	v := tr.View()
	assert.Equal(t, "complete", v.Phase)
	assert.True(t, v.CanRetry)

	post(t, srv, "/session/replay", nil)
	assert.Equal(t, 2, tr.View().Round)

	post(t, srv, "/session/exit", nil)
	assert.Equal(t, "not-started", tr.View().Phase)
}

func TestSettingsForm(t *testing.T) {
	srv, tr := newTestServer(t)
	post(t, srv, "/profiles", url.Values{"name": {"Ann"}})

	rec := post(t, srv, "/settings", url.Values{
		"categories": {"Food"},
		"shuffle":    {"on"},
		"srs":        {"on"},
		"front":      {"thai"},
		"back":       {"english", "roman_tone"},
		"bigFront":   {"thai"},
		"bigBack":    {"english"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	s := tr.View().Settings
	assert.Equal(t, []string{"Food"}, s.Categories)
	assert.True(t, s.Shuffle)
	assert.True(t, s.SRSEnabled)
	assert.Equal(t, []string{"thai"}, s.FrontFields)

	rec = post(t, srv, "/settings", url.Values{"front": {"klingon"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	post(t, srv, "/selection/all", nil)
	assert.Equal(t, []string{"Greetings / Basics", "Food"}, tr.View().Settings.Categories)
	post(t, srv, "/selection/clear", nil)
	assert.Empty(t, tr.View().Settings.Categories)

	post(t, srv, "/srs/reset", nil)
	assert.Equal(t, trainer.StatusSRSReset, tr.View().Status)
}

func TestProfileRoutes(t *testing.T) {
	srv, tr := newTestServer(t)
	post(t, srv, "/profiles", url.Values{"name": {"Ann"}})
	id := tr.View().ActiveProfile.ID

	assert.Equal(t, http.StatusBadRequest, post(t, srv, "/profiles", url.Values{"name": {" "}}).Code)
	assert.Equal(t, http.StatusNotFound, post(t, srv, "/profiles/nope/use", nil).Code)

	require.Equal(t, http.StatusSeeOther, post(t, srv, "/profiles/"+id+"/rename", url.Values{"name": {"Anna"}}).Code)
	assert.Equal(t, "Anna", tr.View().ActiveProfile.Name)

	require.Equal(t, http.StatusSeeOther, post(t, srv, "/profiles/"+id+"/delete", nil).Code)
	assert.Nil(t, tr.View().ActiveProfile)
	assert.Equal(t, http.StatusConflict, post(t, srv, "/session/start", nil).Code)
}
