package manifest

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Advisory is a non-fatal observation about a valid Kitfile.
type Advisory struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (a Advisory) String() string {
	if a.Field == "" {
		return a.Message
	}
	return a.Field + ": " + a.Message
}

// Lint reports advisories for a Kitfile that is valid but likely not what its
// author intended.
func Lint(k *Kitfile) []Advisory {
	var out []Advisory

	if _, err := semver.NewVersion(k.pkg.Version); err != nil {
		out = append(out, Advisory{
			Field:   "package.version",
			Message: fmt.Sprintf("%q is not a semantic version", k.pkg.Version),
		})
	}

	seen := make(map[string]string)
	track := func(field, path string) {
		if first, ok := seen[path]; ok {
			out = append(out, Advisory{
				Field:   field,
				Message: fmt.Sprintf("path %q is also declared by %s", path, first),
			})
			return
		}
		seen[path] = field
	}
	for i, e := range k.code {
		track(indexField("code", i)+".path", e.Path)
	}
	for i, e := range k.datasets {
		track(indexField("datasets", i)+".path", e.Path)
	}
	for i, e := range k.docs {
		track(indexField("docs", i)+".path", e.Path)
	}

	if m := k.model; m != nil {
		track("model.path", m.Path)
		for i, part := range m.Parts {
			track(indexField("model.parts", i)+".path", part.Path)
		}
		if m.Framework == "" {
			out = append(out, Advisory{Field: "model.framework", Message: "framework is not declared"})
		}
		if m.Version != "" {
			if _, err := semver.NewVersion(m.Version); err != nil {
				out = append(out, Advisory{
					Field:   "model.version",
					Message: fmt.Sprintf("%q is not a semantic version", m.Version),
				})
			}
		}
	}
	return out
}
