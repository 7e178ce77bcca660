package branding

import "testing"

func TestEmbeddedValues(t *testing.T) {
	if got := CLIName(); got != "kitfile" {
		t.Errorf("CLIName() = %q, want %q", got, "kitfile")
	}
	if got := HomeDir(); got != ".kitfile" {
		t.Errorf("HomeDir() = %q, want %q", got, ".kitfile")
	}
	if got := EnvVar("home"); got != "KITFILE_HOME" {
		t.Errorf("EnvVar(home) = %q, want %q", got, "KITFILE_HOME")
	}
}
