// Package gitops keeps the written ledger files under git.
package gitops

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Author is who a ledger commit is attributed to.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Init initializes a new git repository at dir.
func Init(dir string) error {
	if out, err := git(dir, "init", "--quiet"); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// IsRepo reports whether dir is inside a git work tree.
func IsRepo(dir string) bool {
	out, err := git(dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// Commit stages paths and commits them. Returns the short commit hash, or ""
// when the files are unchanged since the last commit.
func Commit(dir, message string, author Author, paths ...string) (string, error) {
	if len(paths) == 0 {
		return "", nil
	}
	rel := make([]string, len(paths))
	for i, p := range paths {
		r, err := filepath.Rel(dir, p)
		if err != nil {
			return "", fmt.Errorf("staging %s: %w", p, err)
		}
		rel[i] = r
	}

	if out, err := git(dir, append([]string{"add", "--"}, rel...)...); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	// Exit status 0 means nothing is staged.
	if _, err := git(dir, "diff", "--cached", "--quiet"); err == nil {
		return "", nil
	} else if !isExit(err, 1) {
		return "", fmt.Errorf("git diff: %w", err)
	}

	commit := []string{
		"-c", "user.name=" + author.Name,
		"-c", "user.email=" + author.Email,
		"commit", "--quiet", "-m", message, "--author", author.String(),
	}
	if out, err := git(dir, commit...); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	out, err := git(dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func git(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func isExit(err error, code int) bool {
	var ee *exec.ExitError
	return errors.As(err, &ee) && ee.ExitCode() == code
}
