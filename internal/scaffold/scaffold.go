package scaffold

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/kitops-ml/kitfile/internal/manifest"
)

// IgnoreFileName lists glob patterns, one per line, excluded from discovery.
const IgnoreFileName = ".kitignore"

// ErrExists is returned when the target Kitfile already exists and Force is
// not set.
var ErrExists = errors.New("Kitfile already exists")

// Category is the Kitfile section a discovered file is assigned to.
type Category string

const (
	CategoryModel    Category = "model"
	CategoryDatasets Category = "datasets"
	CategoryDocs     Category = "docs"
	CategoryCode     Category = "code"
)

// Patterns maps each category to the globs that select its files. A file is
// assigned to the first category, in categoryOrder, with a matching pattern.
var Patterns = map[Category][]string{
	CategoryModel: {
		"**/*.safetensors", "**/*.gguf", "**/*.bin", "**/*.pt", "**/*.pth",
		"**/*.onnx", "**/*.h5", "**/*.ckpt", "**/*.pkl", "**/*.joblib",
	},
	CategoryDatasets: {"**/*.csv", "**/*.parquet", "**/*.jsonl", "**/*.arrow", "**/*.tfrecord"},
	CategoryDocs:     {"README*", "LICENSE*", "**/*.md"},
	CategoryCode:     {"**/*.py", "**/*.ipynb", "**/*.go", "**/*.sh", "**/requirements*.txt"},
}

var categoryOrder = []Category{CategoryModel, CategoryDatasets, CategoryDocs, CategoryCode}

// docsDir is declared as a single docs entry when present.
const docsDir = "docs"

// Options controls the package section of the generated Kitfile.
type Options struct {
	Name        string   // defaults to the directory's base name
	Version     string   // defaults to "0.1.0"
	Description string   // defaults to "<name> AI/ML project"
	Authors     []string // defaults to ["unknown"]
	Force       bool     // overwrite an existing Kitfile
	Logger      *slog.Logger
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	Path     string
	Kitfile  *manifest.Kitfile
	Files    map[Category][]string
	Warnings []string
}

func (o *Options) applyDefaults(dir string) {
	if o.Name == "" {
		o.Name = filepath.Base(dir)
	}
	if o.Version == "" {
		o.Version = "0.1.0"
	}
	if o.Description == "" {
		o.Description = o.Name + " AI/ML project"
	}
	if len(o.Authors) == 0 {
		o.Authors = []string{"unknown"}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Generate discovers the files under dir and writes dir/Kitfile describing
// them.
func Generate(dir string, opts Options) (*Result, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving directory %s: %w", dir, err)
	}
	opts.applyDefaults(abs)

	out := filepath.Join(abs, manifest.DefaultFileName)
	if _, err := os.Stat(out); err == nil && !opts.Force {
		return nil, fmt.Errorf("%w at %s; use --force to overwrite", ErrExists, out)
	}

	files, err := Discover(abs)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("discovered project files",
		slog.String("dir", abs),
		slog.Int("model", len(files[CategoryModel])),
		slog.Int("datasets", len(files[CategoryDatasets])),
		slog.Int("docs", len(files[CategoryDocs])),
		slog.Int("code", len(files[CategoryCode])),
	)

	data, err := kitfileData(abs, files, opts)
	if err != nil {
		return nil, err
	}
	k, err := manifest.Build(data, manifest.WithWorkDir(abs), manifest.WithLogger(opts.Logger))
	if err != nil {
		return nil, fmt.Errorf("building Kitfile for %s: %w", abs, err)
	}
	if err := k.Save(out); err != nil {
		return nil, err
	}

	result := &Result{Path: out, Kitfile: k, Files: files}
	for _, a := range manifest.Lint(k) {
		result.Warnings = append(result.Warnings, a.String())
	}
	return result, nil
}

// Discover classifies the files under dir by category. Paths are relative to
// dir with forward slashes, sorted. Hidden files and directories, the Kitfile
// itself, and paths matched by .kitignore are skipped.
func Discover(dir string) (map[Category][]string, error) {
	fsys := os.DirFS(dir)
	ignore, err := readIgnore(fsys)
	if err != nil {
		return nil, err
	}

	assigned := make(map[string]bool)
	files := make(map[Category][]string)
	for _, cat := range categoryOrder {
		for _, pattern := range Patterns[cat] {
			matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("matching %s: %w", pattern, err)
			}
			for _, m := range matches {
				if assigned[m] || skipped(m, ignore) {
					continue
				}
				if cat == CategoryDocs && strings.HasPrefix(m, docsDir+"/") {
					continue
				}
				assigned[m] = true
				files[cat] = append(files[cat], m)
			}
		}
		slices.Sort(files[cat])
	}

	if info, err := fs.Stat(fsys, docsDir); err == nil && info.IsDir() && !skipped(docsDir, ignore) {
		files[CategoryDocs] = append(files[CategoryDocs], docsDir)
	}
	return files, nil
}

func skipped(p string, ignore []string) bool {
	if p == manifest.DefaultFileName {
		return true
	}
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	for _, pattern := range ignore {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern+"/**", p); ok {
			return true
		}
	}
	return false
}

func readIgnore(fsys fs.FS) ([]string, error) {
	data, err := fs.ReadFile(fsys, IgnoreFileName)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", IgnoreFileName, err)
	}

	var patterns []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSuffix(line, "/")
		if rooted := strings.TrimPrefix(line, "/"); rooted != line {
			line = rooted
		} else if !strings.Contains(line, "/") {
			// Bare names match at any depth.
			line = "**/" + line
		}
		if !doublestar.ValidatePattern(line) {
			return nil, fmt.Errorf("%s: invalid pattern %q", IgnoreFileName, line)
		}
		patterns = append(patterns, line)
	}
	return patterns, sc.Err()
}

// kitfileData assembles the plain data handed to manifest.Build. The largest
// weight file becomes the model path and the rest become model parts.
func kitfileData(dir string, files map[Category][]string, opts Options) (map[string]any, error) {
	data := map[string]any{
		"manifestVersion": "1.0",
		"package": map[string]any{
			"name":        opts.Name,
			"version":     opts.Version,
			"description": opts.Description,
			"authors":     opts.Authors,
		},
	}

	if weights := files[CategoryModel]; len(weights) > 0 {
		primary, err := largest(dir, weights)
		if err != nil {
			return nil, err
		}
		model := map[string]any{"name": opts.Name, "path": primary}
		var parts []any
		for _, w := range weights {
			if w == primary {
				continue
			}
			parts = append(parts, map[string]any{"name": stem(w), "path": w})
		}
		if len(parts) > 0 {
			model["parts"] = parts
		}
		data["model"] = model
	}

	if ds := files[CategoryDatasets]; len(ds) > 0 {
		entries := make([]any, len(ds))
		for i, p := range ds {
			entries[i] = map[string]any{"name": stem(p), "path": p}
		}
		data["datasets"] = entries
	}
	if docs := files[CategoryDocs]; len(docs) > 0 {
		entries := make([]any, len(docs))
		for i, p := range docs {
			entries[i] = map[string]any{"path": p}
		}
		data["docs"] = entries
	}
	if code := files[CategoryCode]; len(code) > 0 {
		entries := make([]any, len(code))
		for i, p := range code {
			entries[i] = map[string]any{"path": p}
		}
		data["code"] = entries
	}
	return data, nil
}

// largest returns the biggest file; ties go to the first in sorted order.
func largest(dir string, paths []string) (string, error) {
	best, bestSize := "", int64(-1)
	for _, p := range paths {
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p)))
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", p, err)
		}
		if info.Size() > bestSize {
			best, bestSize = p, info.Size()
		}
	}
	return best, nil
}

func stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
