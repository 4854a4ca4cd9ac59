// CLAUDE:SUMMARY LaTeX metrics extractor: main-file resolution, texcount words, pdflatex+pdfcpu pages.
// Package texdoc extracts word and page counts from a LaTeX project tree.
//
// The extractor never lets a failure escape its boundary: a broken compile
// must not block word-count tracking and vice versa. Each failing side
// degrades to a nil count and a human-readable reason folded into the status
// message.
package texdoc

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// mainFileNames are the conventional main-file names, tried in order before
// falling back to the first .tex file anywhere in the tree.
var mainFileNames = []string{"main.tex", "thesis.tex", "paper.tex", "document.tex"}

// Result is one extraction outcome. Nil counts mean that side failed; Status
// always explains both sides.
type Result struct {
	WordCount *int64 `json:"word_count"`
	PageCount *int64 `json:"page_count"`
	Status    string `json:"status"`
}

// Extractor computes document metrics by driving the external TeX tooling.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Extractor.
func New(cfg Config, logger *slog.Logger) *Extractor {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Extract computes word and page counts for the project rooted at dir.
// Failures of either side are recovered locally; only Status reports them.
func (e *Extractor) Extract(ctx context.Context, dir string) Result {
	words, wordErr := e.wordCount(ctx, dir)

	pages, pageErr := e.pageCount(ctx, dir)

	var parts []string
	if wordErr == nil {
		parts = append(parts, fmt.Sprintf("Words: %d", words))
	} else {
		parts = append(parts, fmt.Sprintf("Words: Failed (%v)", wordErr))
	}
	if pageErr == nil {
		parts = append(parts, fmt.Sprintf("Pages: %d", pages))
	} else {
		parts = append(parts, "Pages: Failed")
	}

	res := Result{Status: strings.Join(parts, " | ")}
	if wordErr == nil {
		res.WordCount = &words
	}
	if pageErr == nil {
		res.PageCount = &pages
	}

	e.logger.Info("extraction finished", "dir", dir, "status", res.Status)
	return res
}

// FindMainFile resolves the project's main .tex file: conventional names in
// the root first, then the first .tex found anywhere under dir. Returns
// ErrNoSource when the tree holds no .tex file at all.
func FindMainFile(dir string) (string, error) {
	for _, name := range mainFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".tex") {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("texdoc: walk %s: %w", dir, err)
	}
	if found == "" {
		return "", ErrNoSource
	}
	return found, nil
}
