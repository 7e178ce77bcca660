// Package cli defines the Cobra command tree for the kitfile CLI. Each file
// in this package registers one top-level command (validate, fmt, show, init,
// etc.) with the root command. Command implementations delegate to the
// manifest, scaffold, and config packages for business logic and only handle
// flag parsing, I/O formatting, and user interaction.
package cli
