package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateFile_ValidManifest(t *testing.T) {
	result, err := ValidateFile(testPath("kitfile-full.yaml"))
	if err != nil {
		t.Fatalf("ValidateFile error: %v", err)
	}
	if !result.Valid {
		t.Errorf("expected valid, got invalid with %d issues:", len(result.Issues))
		for _, issue := range result.Issues {
			t.Errorf("  path=%s keyword=%s message=%s", issue.Path, issue.Keyword, issue.Message)
		}
	}
}

func TestValidateFile_InvalidManifests(t *testing.T) {
	invalidFiles := []struct {
		file    string
		desc    string
		keyword string
	}{
		{"invalid-unknown-key.yaml", "unrecognized top-level key", "additionalProperties"},
		{"invalid-no-content.yaml", "no content section", "content"},
		{"invalid-authors.yaml", "authors is not a list", "type"},
		{"invalid-missing-path.yaml", "dataset without a path", "required"},
	}

	for _, tt := range invalidFiles {
		t.Run(tt.file, func(t *testing.T) {
			result, err := ValidateFile(testPath(tt.file))
			if err != nil {
				t.Fatalf("ValidateFile(%s) unexpected error: %v", tt.file, err)
			}
			if result.Valid {
				t.Fatalf("expected invalid for %s (%s), but got valid", tt.file, tt.desc)
			}
			found := false
			for _, issue := range result.Issues {
				if issue.Keyword == tt.keyword {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("no %q issue for %s (%s): %+v", tt.keyword, tt.file, tt.desc, result.Issues)
			}
		})
	}
}

func TestValidateFile_InvalidYAML(t *testing.T) {
	_, err := ValidateFile(testPath("invalid-not-yaml.yaml"))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("ValidateFile error = %v, want ErrParse", err)
	}
}

func TestValidateFile_NotFound(t *testing.T) {
	_, err := ValidateFile(testPath("nonexistent.yaml"))
	if !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("ValidateFile error = %v, want ErrPathNotFound", err)
	}
}

func TestValidate_IssueFields(t *testing.T) {
	result, err := Validate([]byte(`manifestVersion: "1.0"
package: {name: p, version: 1, description: d, authors: [A]}
docs:
  - path: README.md
    description: 3
`))
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if len(result.Issues) == 0 {
		t.Fatal("expected at least one issue")
	}

	issue := result.Issues[0]
	if issue.Path != "/docs/0/description" {
		t.Errorf("Path = %q, want %q", issue.Path, "/docs/0/description")
	}
	if issue.Message == "" {
		t.Error("expected a non-empty message")
	}
}

func TestValidate_DoesNotResolvePaths(t *testing.T) {
	result, err := Validate([]byte(`manifestVersion: 1.0
package: {name: p, version: 0.1.0, description: d, authors: [A]}
model: {path: nowhere/weights.bin, parameters: {any: [thing, 1, null]}}
`))
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !result.Valid {
		t.Errorf("expected valid, got %+v", result.Issues)
	}
}

// Validate and Parse must accept and reject the same documents whenever every
// declared path exists.
func TestValidate_AgreesWithParse(t *testing.T) {
	const header = "manifestVersion: \"1.0\"\npackage: {name: p, version: 0.1.0, description: d, authors: [A]}\n"
	docs := "docs: [{path: README.md}]\n"

	cases := map[string]string{
		"model version empty":      header + "model: {path: model/weights.bin, version: \"\"}\n",
		"model version number":     header + "model: {path: model/weights.bin, version: 2}\n",
		"model version bool":       header + "model: {path: model/weights.bin, version: true}\n",
		"model parts null":         header + "model: {path: model/weights.bin, parts: null}\n",
		"model null only":          header + "model: null\n",
		"model without path":       header + "model: {name: m}\n",
		"entry description null":   header + "docs: [{path: README.md, description: null}]\n",
		"entry description number": header + "docs: [{path: README.md, description: 5}]\n",
		"entry path empty":         header + "docs: [{path: \"\"}]\n",
		"code null":                header + "code: null\n" + docs,
		"package version empty":    "manifestVersion: \"1.0\"\npackage: {name: p, version: \"\", description: d, authors: [A]}\n" + docs,
		"package name number":      "manifestVersion: \"1.0\"\npackage: {name: 7, version: 1, description: d, authors: [A]}\n" + docs,
		"package authors empty":    "manifestVersion: \"1.0\"\npackage: {name: p, version: 1, description: d, authors: []}\n" + docs,
		"manifestVersion empty":    "manifestVersion: \"\"\npackage: {name: p, version: 1, description: d, authors: [A]}\n" + docs,
		"manifestVersion missing":  "package: {name: p, version: 1, description: d, authors: [A]}\n" + docs,
		"not a mapping":            "- just\n- a list\n",
		"unknown part field":       header + "model: {path: model/weights.bin, parts: [{path: model/lora.safetensors, size: 1}]}\n",
		"parameters anything":      header + "model: {path: model/weights.bin, parameters: [1, {a: null}]}\n",
	}

	entries, err := os.ReadDir(testdataDir)
	if err != nil {
		t.Fatalf("reading testdata: %v", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		data, err := os.ReadFile(testPath(e.Name()))
		if err != nil {
			t.Fatalf("reading %s: %v", e.Name(), err)
		}
		cases[e.Name()] = string(data)
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, parseErr := Parse([]byte(input), WithWorkDir(projectDir))
			result, err := Validate([]byte(input))
			valid := err == nil && result.Valid

			if valid != (parseErr == nil) {
				var issues []ValidationIssue
				if result != nil {
					issues = result.Issues
				}
				t.Errorf("Validate valid=%v (err=%v, issues=%+v), Parse err=%v", valid, err, issues, parseErr)
			}
		})
	}
}

func TestValidate_NotAMapping(t *testing.T) {
	result, err := Validate([]byte("- just\n- a list\n"))
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if result.Valid {
		t.Error("expected a sequence document to be invalid")
	}
}

func TestValidate_SchemaCompiles(t *testing.T) {
	schema, err := getSchema()
	if err != nil {
		t.Fatalf("getSchema() error: %v", err)
	}
	if schema == nil {
		t.Fatal("getSchema() returned nil schema")
	}
}

func TestSchemaJSON(t *testing.T) {
	out := SchemaJSON()
	if !strings.Contains(string(out), `"manifestVersion"`) {
		t.Error("schema does not mention manifestVersion")
	}
	out[0] = 'x'
	if SchemaJSON()[0] == 'x' {
		t.Error("SchemaJSON returned the embedded bytes rather than a copy")
	}
}

func TestLint(t *testing.T) {
	k, err := Load(testPath("kitfile-full.yaml"), WithWorkDir(projectDir))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got := Lint(k); len(got) != 0 {
		t.Errorf("Lint(full) = %v, want no advisories", got)
	}

	data := docsOnly()
	data["package"].(map[string]any)["version"] = "latest"
	data["code"] = []any{map[string]any{"path": "README.md"}}
	data["model"] = map[string]any{"path": "model/weights.bin", "version": "v-two"}
	k, err = Build(data, WithWorkDir(projectDir))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	fields := make(map[string]bool)
	for _, a := range Lint(k) {
		fields[a.Field] = true
	}
	for _, want := range []string{"package.version", "docs[0].path", "model.framework", "model.version"} {
		if !fields[want] {
			t.Errorf("Lint missing advisory for %s, got %v", want, fields)
		}
	}
}
