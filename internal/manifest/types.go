package manifest

// fieldSet records which fields of a record were explicitly provided. Only
// empty fields consult it: a non-empty field always counts as provided, so
// records edited after decoding or written as Go literals behave as expected.
type fieldSet map[string]struct{}

func (s *fieldSet) mark(name string) {
	if *s == nil {
		*s = fieldSet{}
	}
	(*s)[name] = struct{}{}
}

func (s fieldSet) present(name string, empty bool) bool {
	if !empty {
		return true
	}
	_, ok := s[name]
	return ok
}

// Package provides general information about the AI/ML project.
type Package struct {
	Name        string
	Version     string
	Description string
	Authors     []string

	set fieldSet
}

// IsSet reports whether field was explicitly provided.
func (p Package) IsSet(field string) bool { return p.set.present(field, p.isEmpty(field)) }

func (p Package) isEmpty(field string) bool {
	switch field {
	case "name":
		return p.Name == ""
	case "version":
		return p.Version == ""
	case "description":
		return p.Description == ""
	case "authors":
		return len(p.Authors) == 0
	}
	return true
}

func (p Package) toValue(mode emitMode) Value {
	b := newRecordBuilder(mode, p.set)
	b.str("name", p.Name)
	b.str("version", p.Version)
	b.str("description", p.Description)
	b.strs("authors", p.Authors)
	return b.value()
}

func (p Package) clone() Package {
	p.Authors = append([]string(nil), p.Authors...)
	return p
}

// CodeEntry describes source code included in the package.
type CodeEntry struct {
	Path        string
	Description string
	License     string

	set fieldSet
}

// EntryPath returns the path declared by the code entry.
func (e CodeEntry) EntryPath() string { return e.Path }

func (e *CodeEntry) setPath(p string) { e.Path = p }

// IsSet reports whether field was explicitly provided.
func (e CodeEntry) IsSet(field string) bool {
	return e.set.present(field, fieldText(field, "path", e.Path, "description", e.Description, "license", e.License) == "")
}

func (e CodeEntry) toValue(mode emitMode) Value {
	b := newRecordBuilder(mode, e.set)
	b.str("path", e.Path)
	b.str("description", e.Description)
	b.str("license", e.License)
	return b.value()
}

// DatasetEntry describes a dataset included in the package.
type DatasetEntry struct {
	Name        string
	Path        string
	Description string
	License     string

	set fieldSet
}

// EntryPath returns the path declared by the dataset entry.
func (e DatasetEntry) EntryPath() string { return e.Path }

func (e *DatasetEntry) setPath(p string) { e.Path = p }

// IsSet reports whether field was explicitly provided.
func (e DatasetEntry) IsSet(field string) bool {
	return e.set.present(field, fieldText(field, "name", e.Name, "path", e.Path, "description", e.Description, "license", e.License) == "")
}

func (e DatasetEntry) toValue(mode emitMode) Value {
	b := newRecordBuilder(mode, e.set)
	b.str("name", e.Name)
	b.str("path", e.Path)
	b.str("description", e.Description)
	b.str("license", e.License)
	return b.value()
}

// DocsEntry describes documentation included in the package.
type DocsEntry struct {
	Path        string
	Description string

	set fieldSet
}

// EntryPath returns the path declared by the docs entry.
func (e DocsEntry) EntryPath() string { return e.Path }

func (e *DocsEntry) setPath(p string) { e.Path = p }

// IsSet reports whether field was explicitly provided.
func (e DocsEntry) IsSet(field string) bool {
	return e.set.present(field, fieldText(field, "path", e.Path, "description", e.Description) == "")
}

func (e DocsEntry) toValue(mode emitMode) Value {
	b := newRecordBuilder(mode, e.set)
	b.str("path", e.Path)
	b.str("description", e.Description)
	return b.value()
}

// ModelPart is a file related to the model, such as LoRA weights.
type ModelPart struct {
	Name string
	Path string
	Type string

	set fieldSet
}

// EntryPath returns the path declared by the model part.
func (e ModelPart) EntryPath() string { return e.Path }

func (e *ModelPart) setPath(p string) { e.Path = p }

// IsSet reports whether field was explicitly provided.
func (e ModelPart) IsSet(field string) bool {
	return e.set.present(field, fieldText(field, "name", e.Name, "path", e.Path, "type", e.Type) == "")
}

func (e ModelPart) toValue(mode emitMode) Value {
	b := newRecordBuilder(mode, e.set)
	b.str("name", e.Name)
	b.str("path", e.Path)
	b.str("type", e.Type)
	return b.value()
}

// ModelSection details the trained model included in the package.
//
// Parameters holds an arbitrary JSON-compatible tree. It is serialized with
// mapping keys sorted and numbers in decimal form.
type ModelSection struct {
	Name        string
	Path        string
	Framework   string
	Version     string
	Description string
	License     string
	Parts       []ModelPart
	Parameters  Value

	set fieldSet
}

// EntryPath returns the path declared by the model section.
func (m ModelSection) EntryPath() string { return m.Path }

func (m *ModelSection) setPath(p string) { m.Path = p }

// IsSet reports whether field was explicitly provided.
func (m ModelSection) IsSet(field string) bool {
	switch field {
	case "parts":
		return m.set.present(field, len(m.Parts) == 0)
	case "parameters":
		return m.set.present(field, m.Parameters.IsNull())
	}
	return m.set.present(field, fieldText(field,
		"name", m.Name, "path", m.Path, "framework", m.Framework, "version", m.Version,
		"description", m.Description, "license", m.License) == "")
}

func (m ModelSection) toValue(mode emitMode) Value {
	b := newRecordBuilder(mode, m.set)
	b.str("name", m.Name)
	b.str("path", m.Path)
	b.str("framework", m.Framework)
	b.str("version", m.Version)
	b.str("description", m.Description)
	b.str("license", m.License)
	parts := make([]Value, len(m.Parts))
	for i, part := range m.Parts {
		parts[i] = part.toValue(mode)
	}
	b.add("parts", List(parts...), len(parts) == 0)
	b.add("parameters", m.Parameters.Normalize(), m.Parameters.IsNull())
	return b.value()
}

func (m ModelSection) clone() ModelSection {
	m.Parts = append([]ModelPart(nil), m.Parts...)
	return m
}

// fieldText looks up field in alternating name/value pairs.
func fieldText(field string, pairs ...string) string {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i] == field {
			return pairs[i+1]
		}
	}
	return ""
}
