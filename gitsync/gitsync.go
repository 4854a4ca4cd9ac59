// CLAUDE:SUMMARY Overleaf git synchronizer: token-fallback clone, change-detecting pull, clone lifecycle.
// Package gitsync materialises and refreshes local clones of remote LaTeX
// project repositories.
//
// Overleaf exposes every project as an https git remote authenticated by a
// per-user token embedded in the transfer URL. A Syncer holds an ordered
// list of such tokens and tries each in turn on clone, so one revoked token
// does not break tracking for accounts that share the config.
package gitsync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// Syncer manages one local clone per project id under a root directory.
type Syncer struct {
	root   string
	tokens []string
	logger *slog.Logger
}

// New creates a Syncer rooted at dir. The directory is created on demand.
func New(dir string, tokens []string, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{root: dir, tokens: tokens, logger: logger}
}

// LocalPath returns the clone directory for a project and whether it exists.
func (s *Syncer) LocalPath(projectID string) (string, bool) {
	p := filepath.Join(s.root, projectID)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

// Clone clones the project, trying each credential token in order. A failed
// attempt removes any partially created clone before the next token is tried.
// Returns the path of the new clone and a nil error on success.
func (s *Syncer) Clone(ctx context.Context, projectID, url string) (string, error) {
	path := filepath.Join(s.root, projectID)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	}
	if len(s.tokens) == 0 {
		return "", ErrNoCredentials
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("gitsync: mkdir root: %w", err)
	}

	var lastErr error
	for i, token := range s.tokens {
		s.logger.Info("cloning project", "project_id", projectID, "token", fmt.Sprintf("%d/%d", i+1, len(s.tokens)))

		_, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
			URL: authURL(url, token),
		})
		if err == nil {
			s.logger.Info("clone succeeded", "project_id", projectID, "token", i+1)
			return path, nil
		}

		lastErr = err
		s.logger.Warn("clone attempt failed", "project_id", projectID, "token", i+1, "error", err)
		// Discard the partial clone so the next attempt starts clean.
		os.RemoveAll(path)
	}

	return "", fmt.Errorf("%w (%d tokens): %v", ErrAllCredentialsFailed, len(s.tokens), lastErr)
}

// Pull fetches upstream changes for an existing clone. changed is true only
// when HEAD moved; a pull with no upstream movement is a success with
// changed=false.
func (s *Syncer) Pull(ctx context.Context, projectID string) (changed bool, msg string, err error) {
	path, ok := s.LocalPath(projectID)
	if !ok {
		return false, "", fmt.Errorf("%w: %s", ErrNotFound, projectID)
	}

	repo, err := git.PlainOpen(path)
	if err != nil {
		return false, "", fmt.Errorf("%w: open: %v", ErrPullFailed, err)
	}

	before, err := repo.Head()
	if err != nil {
		return false, "", fmt.Errorf("%w: head: %v", ErrPullFailed, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return false, "", fmt.Errorf("%w: worktree: %v", ErrPullFailed, err)
	}

	pullErr := wt.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
	if pullErr != nil && pullErr != git.NoErrAlreadyUpToDate {
		return false, "", fmt.Errorf("%w: %v", ErrPullFailed, pullErr)
	}

	after, err := repo.Head()
	if err != nil {
		return false, "", fmt.Errorf("%w: head after pull: %v", ErrPullFailed, err)
	}

	if before.Hash() != after.Hash() {
		s.logger.Info("project updated", "project_id", projectID,
			"from", short(before.Hash().String()), "to", short(after.Hash().String()))
		return true, fmt.Sprintf("Updated successfully (%s)", short(after.Hash().String())), nil
	}
	return false, "Already up to date", nil
}

// LatestRevision returns the clone's HEAD commit hash, or "" when the clone
// is missing or unreadable.
func (s *Syncer) LatestRevision(projectID string) string {
	path, ok := s.LocalPath(projectID)
	if !ok {
		return ""
	}
	repo, err := git.PlainOpen(path)
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}

// Remove deletes the project's local clone. Unconditionally destructive;
// confirmation belongs to the caller.
func (s *Syncer) Remove(projectID string) error {
	path, ok := s.LocalPath(projectID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, projectID)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("gitsync: remove %s: %w", projectID, err)
	}
	s.logger.Info("removed local clone", "project_id", projectID)
	return nil
}

// authURL embeds an Overleaf token into an http(s) transfer URL. Non-HTTP
// remotes (including local paths used in tests) pass through untouched.
func authURL(url, token string) string {
	if token == "" {
		return url
	}
	for _, scheme := range []string{"https://", "http://"} {
		if rest, ok := strings.CutPrefix(url, scheme); ok {
			return scheme + "git:" + token + "@" + rest
		}
	}
	return url
}

func short(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
