package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PathResolver checks that declared paths exist and rewrites absolute paths
// relative to a root directory, normally the working directory.
type PathResolver struct {
	root string
}

// NewPathResolver returns a resolver rooted at root. An empty root means the
// current working directory.
func NewPathResolver(root string) (*PathResolver, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determining working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving working directory %s: %w", root, err)
	}
	return &PathResolver{root: abs}, nil
}

// Root returns the absolute directory paths are resolved against.
func (r *PathResolver) Root() string { return r.root }

// Resolve verifies that p names an existing file or directory. Relative paths
// are returned unchanged. Absolute paths are returned relative to the root
// with forward slashes, and fail with ErrInvalidPath when outside the root.
func (r *PathResolver) Resolve(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathNotFound)
	}

	native := filepath.FromSlash(p)
	target := native
	if !filepath.IsAbs(native) {
		target = filepath.Join(r.root, native)
	}
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrPathNotFound, p)
		}
		return "", fmt.Errorf("checking path %s: %w", p, err)
	}

	if !filepath.IsAbs(native) {
		return p, nil
	}
	rel, err := filepath.Rel(r.root, filepath.Clean(native))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrInvalidPath, p, r.root)
	}
	return filepath.ToSlash(rel), nil
}

// PathEntry is implemented by every record that points at a file or
// directory: code, dataset, and docs entries, model parts, and the model
// section itself.
type PathEntry interface {
	EntryPath() string
	IsSet(field string) bool
	setPath(p string)
}

// resolveEntry runs the resolver over e, replacing its path with the
// normalized form.
func resolveEntry(r *PathResolver, e PathEntry) error {
	if e.EntryPath() == "" {
		return violation("path", "field required")
	}
	p, err := r.Resolve(e.EntryPath())
	if err != nil {
		return inField("path", err)
	}
	e.setPath(p)
	return nil
}
