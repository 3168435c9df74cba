package cardkey

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/conorfennell/thaiflash/internal/domain"
)

// separator cannot appear in normal vocabulary text, so field boundaries
// stay unambiguous.
const separator = "\x1f"

// Normalize joins the identity tuple after cleaning each text field.
// Whitespace is trimmed and line endings are normalized; case is kept.
func Normalize(id domain.CardID) string {
	normalizePart := func(part string) string {
		p := strings.TrimSpace(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	return strings.Join([]string{
		normalizePart(id.Category),
		strconv.Itoa(id.Index),
		normalizePart(id.Thai),
		normalizePart(id.English),
	}, separator)
}

// Key returns the persistence key for a card: the SHA-256 of the
// normalized tuple as a hex string.
func Key(id domain.CardID) string {
	normalized := Normalize(id)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}

// Of builds the identity of the item at index within category.
func Of(category string, index int, item domain.VocabItem) domain.CardID {
	return domain.CardID{
		Category: category,
		Index:    index,
		Thai:     item.Thai,
		English:  item.English,
	}
}
