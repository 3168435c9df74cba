package sync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeVocab(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	testCases := []struct {
		name           string
		body           string
		expectedCats   int
		expectedStatus string
	}{
		{
			name:         "valid document",
			body:         `{"categories": [{"category": "Food", "items": [{"thai": "ข้าว", "english": "rice"}]}]}`,
			expectedCats: 1,
		},
		{
			name:           "no categories",
			body:           `{"categories": []}`,
			expectedStatus: StatusNoCategories,
		},
		{
			name:           "malformed",
			body:           `[`,
			expectedStatus: "Failed to load vocabulary",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := Load(Source{Path: writeVocab(t, tc.body)})
			if len(res.Categories) != tc.expectedCats {
				t.Errorf("Expected %d categories, got %d", tc.expectedCats, len(res.Categories))
			}
			if !strings.HasPrefix(res.Status, tc.expectedStatus) {
				t.Errorf("Expected status starting with %q, got %q", tc.expectedStatus, res.Status)
			}
			if tc.expectedStatus == "" && res.Status != "" {
				t.Errorf("Expected no status, got %q", res.Status)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	res := Load(Source{Path: filepath.Join(t.TempDir(), "missing.json")})
	if len(res.Categories) != 0 {
		t.Errorf("Expected no categories, got %d", len(res.Categories))
	}
	if !strings.Contains(res.Status, "Failed to load vocabulary") {
		t.Errorf("Unexpected status %q", res.Status)
	}
}

func TestLoadBadRepoURL(t *testing.T) {
	res := Load(Source{Repo: "not a url", ReposDir: t.TempDir(), File: "vocab.json"})
	if len(res.Categories) != 0 || res.Status == "" {
		t.Errorf("Expected an unavailable result, got %+v", res)
	}
}
