package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validKitfile = `manifestVersion: 1.0
package:
  name: demo
  version: 0.1.0
  description: Demo package
  authors: [Ada]
model:
  path: weights.bin
  framework: onnx
  parameters: {b: 0x10, a: 1}
docs:
  - path: README.md
`

// execute runs the root command with args and returns its combined output.
// Flag values are reset first since commands are package-level.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("KITFILE_HOME", t.TempDir())
	viper.Reset()
	t.Cleanup(viper.Reset)
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// project writes a Kitfile and the files it references, returning its path.
func project(t *testing.T, kitfile string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"Kitfile":     kitfile,
		"weights.bin": "w",
		"README.md":   "readme",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return filepath.Join(dir, "Kitfile")
}

func TestValidate(t *testing.T) {
	path := project(t, validKitfile)

	out, err := execute(t, "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
}

func TestValidateReportsIssues(t *testing.T) {
	path := project(t, strings.Replace(validKitfile, "authors: [Ada]", "authors: Ada", 1))

	out, err := execute(t, "validate", "--file", path)
	assert.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out, "/package/authors")
}

func TestValidateMissingPath(t *testing.T) {
	path := project(t, strings.Replace(validKitfile, "weights.bin", "missing.bin", 1))

	_, err := execute(t, "validate", "-f", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model.path")
}

func TestValidateJSON(t *testing.T) {
	path := project(t, strings.Replace(validKitfile, "version: 0.1.0", "version: latest", 1))

	out, err := execute(t, "validate", "-f", path, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": true`)
	assert.Contains(t, out, `"field": "package.version"`)
}

func TestFmt(t *testing.T) {
	path := project(t, validKitfile)

	_, err := execute(t, "fmt", "--check", "-f", path)
	require.Error(t, err, "unformatted Kitfile passes --check")

	out, err := execute(t, "fmt", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Formatted")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	formatted := string(data)
	assert.Contains(t, formatted, `manifestVersion: "1.0"`)
	assert.Contains(t, formatted, "a: 1\n    b: 16")
	assert.Less(t, strings.Index(formatted, "docs:"), strings.Index(formatted, "model:"))

	_, err = execute(t, "fmt", "--check", "-f", path)
	assert.NoError(t, err)
}

func TestFmtStdoutAll(t *testing.T) {
	path := project(t, validKitfile)

	out, err := execute(t, "fmt", "--stdout", "--all", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "code: []")
	assert.Contains(t, out, "datasets: []")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, validKitfile, string(data), "--stdout must not rewrite the file")
}

func TestShow(t *testing.T) {
	path := project(t, validKitfile)

	out, err := execute(t, "show", "-f", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Kitfile Contents..."))

	out, err = execute(t, "show", "--json", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"manifestVersion": "1.0"`)
	assert.Contains(t, out, `"framework": "onnx"`)
}

func TestDirFlag(t *testing.T) {
	path := project(t, validKitfile)

	out, err := execute(t, "validate", "-C", filepath.Dir(path))
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("readme"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.gguf"), []byte("w"), 0644))

	out, err := execute(t, "init", dir, "--name", "demo", "--author", "Ada", "--author", "Grace")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")

	data, err := os.ReadFile(filepath.Join(dir, "Kitfile"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: demo")
	assert.Contains(t, string(data), "- Grace")

	_, err = execute(t, "init", dir)
	assert.Error(t, err, "init overwrote an existing Kitfile without --force")
}

func TestConfigCommands(t *testing.T) {
	out, err := execute(t, "config", "get", "suppress_empty")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	_, err = execute(t, "config", "get", "mirror")
	assert.Error(t, err)

	out, err = execute(t, "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "kitfile = Kitfile")
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"$schema"`)
}

func TestVersion(t *testing.T) {
	buildVersion, buildCommit, buildDate = "1.2.3", "abc", "today"

	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"commit": "abc"`)
}

func TestInitRejectsBadVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("readme"), 0644))

	_, err := execute(t, "init", dir, "--version", "one")
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "Kitfile"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPositionalFile(t *testing.T) {
	path := project(t, validKitfile)

	out, err := execute(t, "show", path)
	require.NoError(t, err)
	assert.Contains(t, out, "name: demo")
}
