package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/thaiflash/internal/domain"
)

// ErrDataUnavailable is returned when the vocabulary document is missing or
// cannot be decoded.
var ErrDataUnavailable = errors.New("vocab: data unavailable")

var validate = validator.New(validator.WithRequiredStructEnabled())

// document is the on-disk shape of the vocabulary source.
type document struct {
	Categories []domain.Category `json:"categories"`
}

// ParseFile reads a vocabulary document from the given path.
func ParseFile(path string) ([]domain.Category, []error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse decodes a vocabulary document. Categories that fail validation are
// dropped and reported in the returned warnings; the rest are kept in
// source order.
func Parse(r io.Reader) ([]domain.Category, []error, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	var categories []domain.Category
	var warnings []error
	seen := make(map[string]bool)
	for i, cat := range doc.Categories {
		if err := validate.Struct(cat); err != nil {
			warnings = append(warnings, fmt.Errorf("category %d (%q): %w", i, cat.Name, err))
			continue
		}
		if seen[cat.Name] {
			warnings = append(warnings, fmt.Errorf("category %d: duplicate name %q", i, cat.Name))
			continue
		}
		seen[cat.Name] = true
		categories = append(categories, cat)
	}

	return categories, warnings, nil
}
