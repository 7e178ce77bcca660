// Package scaffold generates a starter Kitfile for an existing project
// directory. It powers the "kitfile init" command: files are classified by
// glob pattern into model weights, datasets, docs, and code, the result is
// built and validated through the manifest package, and lint advisories are
// reported as warnings.
package scaffold
