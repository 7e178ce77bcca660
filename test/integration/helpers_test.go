//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir    string // KITFILE_HOME, holds config.yaml
	ProjectDir string // a mock ML project
}

// setupTestEnv creates isolated temp directories and points KITFILE_HOME at
// one of them so user config never leaks into a test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:    t.TempDir(),
		ProjectDir: t.TempDir(),
	}
	t.Setenv("KITFILE_HOME", env.HomeDir)
	return env
}

// setupProject lays out a small ML project: weights, an adapter, datasets,
// docs, and training code, plus files that discovery must skip.
func setupProject(t *testing.T, dir string) {
	t.Helper()

	writeFile(t, filepath.Join(dir, "README.md"), "# Sentiment\n")
	writeFile(t, filepath.Join(dir, "docs", "usage.md"), "Usage notes.\n")
	writeFile(t, filepath.Join(dir, "model", "model.safetensors"), strings.Repeat("0", 1024))
	writeFile(t, filepath.Join(dir, "model", "lora.safetensors"), strings.Repeat("0", 16))
	writeFile(t, filepath.Join(dir, "data", "train.parquet"), "PAR1")
	writeFile(t, filepath.Join(dir, "data", "scratch", "tmp.csv"), "a,b\n")
	writeFile(t, filepath.Join(dir, "train.py"), "print('train')\n")
	writeFile(t, filepath.Join(dir, ".git", "config"), "[core]\n")
	writeFile(t, filepath.Join(dir, ".kitignore"), "data/scratch/\n")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func assertContains(t *testing.T, content, substr string) {
	t.Helper()
	if !strings.Contains(content, substr) {
		t.Errorf("content does not contain %q\n--- content ---\n%s", substr, content)
	}
}

func assertNotContains(t *testing.T, content, substr string) {
	t.Helper()
	if strings.Contains(content, substr) {
		t.Errorf("content should not contain %q\n--- content ---\n%s", substr, content)
	}
}
