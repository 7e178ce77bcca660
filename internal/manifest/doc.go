// Package manifest models the Kitfile: the YAML manifest that describes an
// AI/ML project package (metadata, code, datasets, docs, and model artifacts).
//
// A Kitfile is built from raw data (Build, BuildValue), YAML text (Parse), or
// a file on disk (Load). Construction validates every field, resolves every
// declared path against the working directory, and enforces that at least one
// content section is present; a failed build never yields a Kitfile. Built
// Kitfiles serialize back to YAML in declared field order (Serialize, Save).
//
// Validate and ValidateFile complement the fail-fast builders with a
// structural check against the embedded JSON schema that reports every issue
// at once, and Lint reports non-fatal advisories.
package manifest
