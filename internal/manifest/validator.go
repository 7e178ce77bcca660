package manifest

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/kitfile.schema.json
var schemaBytes []byte

const schemaURL = "kitfile.schema.json"

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// ValidationResult contains the outcome of a structural validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// ValidationIssue represents a single structural problem.
type ValidationIssue struct {
	Path    string `json:"path"`    // Instance location (e.g., "/package/authors", "/docs/0/path")
	Message string `json:"message"` // Human-readable error message
	Keyword string `json:"keyword"` // Schema keyword that failed
}

// SchemaJSON returns the embedded Kitfile JSON schema.
func SchemaJSON() []byte {
	return bytes.Clone(schemaBytes)
}

// getSchema compiles the embedded JSON schema once and returns it.
func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Validate checks YAML text against the Kitfile JSON schema and reports every
// structural issue, including the rule that at least one content section is
// present. It does not touch the filesystem; Build and Load additionally
// resolve entry paths.
//
// The error return is for malformed YAML (a *ParseError) or schema
// compilation failures. Validation issues are returned in the result.
func Validate(data []byte) (*ValidationResult, error) {
	v, err := decodeYAML(data, "")
	if err != nil {
		return nil, err
	}
	return ValidateValue(v)
}

// ValidateFile reads a file and validates it against the Kitfile schema.
func ValidateFile(path string) (*ValidationResult, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	v, err := decodeYAML(data, path)
	if err != nil {
		return nil, err
	}
	return ValidateValue(v)
}

// ValidateValue checks a Value tree against the Kitfile schema.
func ValidateValue(v Value) (*ValidationResult, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	jsonData, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}

	var issues []ValidationIssue
	if err := schema.Validate(inst); err != nil {
		validationErr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return nil, fmt.Errorf("unexpected validation error type: %w", err)
		}
		issues = extractIssues(validationErr)
	}
	if v.Kind() == MapKind && !hasContent(v) {
		issues = append(issues, ValidationIssue{
			Message: "at least one of code, datasets, docs, or model is required",
			Keyword: "content",
		})
	}

	return &ValidationResult{Valid: len(issues) == 0, Issues: issues}, nil
}

func hasContent(v Value) bool {
	for _, key := range []string{"code", "datasets", "docs"} {
		if s, ok := v.Get(key); ok && s.Len() > 0 {
			return true
		}
	}
	m, ok := v.Get("model")
	return ok && !m.IsNull()
}

// extractIssues walks the ValidationError tree and returns leaf-level issues.
func extractIssues(ve *jsonschema.ValidationError) []ValidationIssue {
	var issues []ValidationIssue
	collectValidationIssues(ve, &issues)

	if len(issues) == 0 {
		return []ValidationIssue{{
			Message: ve.Error(),
		}}
	}
	return deduplicateIssues(issues)
}

// collectValidationIssues recursively walks the error tree to find leaf errors
// with specific property information.
func collectValidationIssues(ve *jsonschema.ValidationError, issues *[]ValidationIssue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectValidationIssues(cause, issues)
		}
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}

	keyword := ""
	msg := ""
	if ve.ErrorKind != nil {
		if kwPath := ve.ErrorKind.KeywordPath(); len(kwPath) > 0 {
			keyword = kwPath[len(kwPath)-1]
		}
		msg = ve.ErrorKind.LocalizedString(printer)
	}

	// Container keywords only summarize their causes.
	if keyword == "allOf" || keyword == "anyOf" || keyword == "$ref" || keyword == "" {
		return
	}

	*issues = append(*issues, ValidationIssue{
		Path:    path,
		Message: msg,
		Keyword: keyword,
	})
}

// deduplicateIssues removes duplicate issues (same path + keyword + message).
func deduplicateIssues(issues []ValidationIssue) []ValidationIssue {
	seen := make(map[string]bool)
	var result []ValidationIssue
	for _, issue := range issues {
		key := issue.Path + "|" + issue.Keyword + "|" + issue.Message
		if !seen[key] {
			seen[key] = true
			result = append(result, issue)
		}
	}
	return result
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: Kitfile %s", ErrPathNotFound, path)
		}
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
