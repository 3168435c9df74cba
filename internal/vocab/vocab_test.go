package vocab

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name               string
		input              string
		expectedCategories []string
		expectedItems      []int
		expectedWarnings   int
	}{
		{
			name: "Single category",
			input: `{"categories": [{"category": "Greetings / Basics", "items": [
				{"thai": "สวัสดี", "english": "hello", "roman_tone": "sà-wàt-dii", "phonetic_easy": "sa-wat-dee"}
			]}]}`,
			expectedCategories: []string{"Greetings / Basics"},
			expectedItems:      []int{1},
		},
		{
			name: "Source order is kept",
			input: `{"categories": [
				{"category": "Numbers", "items": [{"thai": "หนึ่ง", "english": "one"}, {"thai": "สอง", "english": "two"}]},
				{"category": "Food", "items": [{"thai": "ข้าว", "english": "rice"}]}
			]}`,
			expectedCategories: []string{"Numbers", "Food"},
			expectedItems:      []int{2, 1},
		},
		{
			name:               "Missing categories array",
			input:              `{"version": 1}`,
			expectedCategories: nil,
		},
		{
			name: "Item without english is dropped with its category",
			input: `{"categories": [
				{"category": "Broken", "items": [{"thai": "น้ำ"}]},
				{"category": "Fine", "items": [{"thai": "น้ำ", "english": "water"}]}
			]}`,
			expectedCategories: []string{"Fine"},
			expectedItems:      []int{1},
			expectedWarnings:   1,
		},
		{
			name: "Unnamed and duplicate categories are dropped",
			input: `{"categories": [
				{"category": "", "items": []},
				{"category": "Food", "items": []},
				{"category": "Food", "items": []}
			]}`,
			expectedCategories: []string{"Food"},
			expectedItems:      []int{0},
			expectedWarnings:   2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			categories, warnings, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}

			if len(warnings) != tc.expectedWarnings {
				t.Errorf("Expected %d warnings, but got %d: %v", tc.expectedWarnings, len(warnings), warnings)
			}
			if len(categories) != len(tc.expectedCategories) {
				t.Fatalf("Expected %d categories, but got %d", len(tc.expectedCategories), len(categories))
			}
			for i, cat := range categories {
				if cat.Name != tc.expectedCategories[i] {
					t.Errorf("Expected category %d to be '%s', but got '%s'", i, tc.expectedCategories[i], cat.Name)
				}
				if len(cat.Items) != tc.expectedItems[i] {
					t.Errorf("Expected %d items in '%s', but got %d", tc.expectedItems[i], cat.Name, len(cat.Items))
				}
			}
		})
	}
}

func TestParseFields(t *testing.T) {
	input := `{"categories": [{"category": "Greetings", "items": [
		{"thai": "ขอบคุณ", "english": "thank you", "roman_tone": "khàwp-khun", "phonetic_easy": "kop-koon"}
	]}]}`
	categories, _, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() returned an unexpected error: %v", err)
	}
	item := categories[0].Items[0]
	if item.Thai != "ขอบคุณ" || item.English != "thank you" || item.RomanTone != "khàwp-khun" || item.PhoneticEasy != "kop-koon" {
		t.Errorf("Unexpected item fields: %+v", item)
	}
}

func TestParseMalformed(t *testing.T) {
	_, _, err := Parse(strings.NewReader(`{"categories": [`))
	if !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("Expected ErrDataUnavailable, got %v", err)
	}
}

func TestParseFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, _, err := ParseFile(filepath.Join(t.TempDir(), "nope.json"))
		if !errors.Is(err, ErrDataUnavailable) {
			t.Errorf("Expected ErrDataUnavailable, got %v", err)
		}
	})

	t.Run("reads from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vocab.json")
		data := `{"categories": [{"category": "Colors", "items": [{"thai": "แดง", "english": "red"}]}]}`
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		categories, _, err := ParseFile(path)
		if err != nil {
			t.Fatalf("ParseFile() returned an unexpected error: %v", err)
		}
		if len(categories) != 1 || categories[0].Name != "Colors" {
			t.Errorf("Unexpected categories: %+v", categories)
		}
	})
}
