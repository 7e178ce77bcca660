// Package config manages user-level settings stored at ~/.kitfile/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the default Kitfile name and whether serialization suppresses empty fields.
// Every key can be overridden by a KITFILE_-prefixed environment variable.
package config
