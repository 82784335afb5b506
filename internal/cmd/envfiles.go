package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/gofulmen/pathfinder"
)

// envFiles lists .env candidates: the working directory first, then the
// enclosing project root when it differs. Later files do not override
// variables already set.
func envFiles() []string {
	files := []string{".env"}
	root, err := findProjectRoot()
	if err != nil || root == "" {
		return files
	}
	cwd, err := os.Getwd()
	if err == nil && filepath.Clean(cwd) == filepath.Clean(root) {
		return files
	}
	return append(files, filepath.Join(root, ".env"))
}

func findProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	markers := []string{"go.mod", ".git", ".fulmen"}

	// CI workspaces are a boundary so the search never escapes the checkout.
	isCI := strings.EqualFold(strings.TrimSpace(os.Getenv("GITHUB_ACTIONS")), "true") ||
		strings.EqualFold(strings.TrimSpace(os.Getenv("CI")), "true")
	if isCI {
		for _, key := range []string{"GITHUB_WORKSPACE", "CI_PROJECT_DIR", "WORKSPACE"} {
			boundary := strings.TrimSpace(os.Getenv(key))
			if boundary == "" || !filepath.IsAbs(boundary) {
				continue
			}
			boundary = filepath.Clean(boundary)
			if rel, err := filepath.Rel(boundary, cwd); err != nil || strings.HasPrefix(rel, "..") {
				continue
			}
			root, err := pathfinder.FindRepositoryRoot(cwd, markers,
				pathfinder.WithBoundary(boundary),
				pathfinder.WithMaxDepth(20),
			)
			if err == nil {
				return root, nil
			}
		}
	}

	return pathfinder.FindRepositoryRoot(cwd, markers, pathfinder.WithMaxDepth(10))
}
