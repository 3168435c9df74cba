package sync

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/conorfennell/thaiflash/internal/domain"
	"github.com/conorfennell/thaiflash/internal/gitsource"
	"github.com/conorfennell/thaiflash/internal/vocab"
)

// StatusNoCategories is shown when the vocabulary loads but holds nothing.
const StatusNoCategories = "Check that the JSON has a 'categories' array."

// Source says where the vocabulary document lives. When Repo is set the
// document is File inside a clone of Repo under ReposDir; otherwise it is
// read from Path.
type Source struct {
	Path     string
	Repo     string
	File     string
	ReposDir string
}

// Result is the loaded vocabulary plus a status line for the learner.
// Status is empty when categories were loaded.
type Result struct {
	Categories []domain.Category
	Status     string
}

// Load resolves the source and reads the vocabulary. It never fails: a
// missing or malformed source yields no categories and a diagnostic status.
func Load(src Source) Result {
	path := src.Path
	if src.Repo != "" {
		localRepoPath, err := gitsource.LocalPath(src.ReposDir, src.Repo)
		if err != nil {
			return unavailable(src.Repo, err)
		}
		if err := gitsource.Sync(src.Repo, localRepoPath); err != nil {
			return unavailable(src.Repo, err)
		}
		path = filepath.Join(localRepoPath, src.File)
	}

	categories, warnings, err := vocab.ParseFile(path)
	if err != nil {
		return unavailable(path, err)
	}
	for _, w := range warnings {
		slog.Warn("Skipping invalid category", "path", path, "error", w)
	}

	items := 0
	for _, cat := range categories {
		items += len(cat.Items)
	}
	slog.Info("Vocabulary loaded",
		"path", path,
		"categories", len(categories),
		"items", items,
		"skipped", len(warnings),
	)

	if len(categories) == 0 {
		return Result{Status: StatusNoCategories}
	}
	return Result{Categories: categories}
}

func unavailable(source string, err error) Result {
	slog.Error("Vocabulary unavailable", "source", source, "error", err)
	return Result{Status: fmt.Sprintf("Failed to load vocabulary (%v).", err)}
}
