package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// The binary must run from any directory: identity and prompts are embedded.
func TestStandaloneBinaryWorksOutsideRepo(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}
	if runtime.GOOS == "windows" {
		t.Skip("standalone binary copy/exec test is unix-focused")
	}
	goModPathBytes, err := exec.Command("go", "env", "GOMOD").Output()
	if err != nil {
		t.Fatalf("go env GOMOD: %v", err)
	}
	goModPath := strings.TrimSpace(string(goModPathBytes))
	if goModPath == "" {
		t.Fatalf("go env GOMOD returned empty")
	}
	repoRoot := filepath.Dir(goModPath)

	buildDir := t.TempDir()
	binaryPath := filepath.Join(buildDir, "coinlens")

	build := exec.Command("go", "build", "-o", binaryPath, "./cmd/coinlens")
	build.Dir = repoRoot
	build.Env = os.Environ()
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("go build: %v\n%s", err, string(out))
	}

	outside := t.TempDir()
	env := append(os.Environ(), "XDG_CONFIG_HOME="+t.TempDir(), "HOME="+outside)

	for _, args := range [][]string{
		{"version"},
		{"--help"},
		{"coins", "-o", "json"},
		{"prompts"},
	} {
		c := exec.Command(binaryPath, args...)
		c.Dir = outside
		c.Env = env
		out, err := c.CombinedOutput()
		if err != nil {
			t.Fatalf("%v failed: %v\n%s", args, err, string(out))
		}
		if args[0] == "prompts" && !strings.Contains(string(out), "coin-estimate-image") {
			t.Fatalf("prompts output missing image prompt:\n%s", out)
		}
	}
}
