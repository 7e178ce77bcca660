package manifest

import (
	"fmt"
	"slices"
	"strings"
)

// emitMode selects which fields a record contributes when converted back to
// a Value.
type emitMode uint8

const (
	// emitSet keeps every explicitly provided field, empty or not.
	emitSet emitMode = iota
	// emitNonEmpty keeps provided fields that are neither null nor an empty
	// sequence or mapping. Explicitly provided empty strings are kept.
	emitNonEmpty
	// emitAll keeps every field, defaults included.
	emitAll
)

// recordBuilder assembles a mapping Value in declared field order.
type recordBuilder struct {
	mode    emitMode
	set     fieldSet
	members []Member
}

func newRecordBuilder(mode emitMode, set fieldSet) *recordBuilder {
	return &recordBuilder{mode: mode, set: set}
}

func (b *recordBuilder) str(key, s string) { b.add(key, String(s), s == "") }

func (b *recordBuilder) strs(key string, ss []string) {
	items := make([]Value, len(ss))
	for i, s := range ss {
		items[i] = String(s)
	}
	b.add(key, List(items...), len(ss) == 0)
}

func (b *recordBuilder) add(key string, v Value, empty bool) {
	switch b.mode {
	case emitSet:
		if !b.set.present(key, empty) {
			return
		}
	case emitNonEmpty:
		if !b.set.present(key, empty) || v.IsNull() {
			return
		}
		if (v.Kind() == ListKind || v.Kind() == MapKind) && v.Len() == 0 {
			return
		}
	}
	b.members = append(b.members, Member{Key: key, Value: v})
}

func (b *recordBuilder) value() Value { return Map(b.members...) }

// record checks that v is a mapping whose keys are all known.
func record(v Value, known ...string) ([]Member, error) {
	if v.Kind() != MapKind {
		return nil, violation("", "expected a mapping, got %s", v.Kind())
	}
	for _, m := range v.Members() {
		if !slices.Contains(known, m.Key) {
			return nil, violation(m.Key, "unknown field; expected one of %s", strings.Join(known, ", "))
		}
	}
	return v.Members(), nil
}

// assignStrings copies string members into their targets and marks them
// present. Null members are skipped and stay unset.
func assignStrings(members []Member, set *fieldSet, targets map[string]*string) error {
	for _, m := range members {
		dst, ok := targets[m.Key]
		if !ok || m.Value.IsNull() {
			continue
		}
		if m.Value.Kind() != StringKind {
			return violation(m.Key, "expected a string, got %s", m.Value.Kind())
		}
		*dst = m.Value.Text()
		set.mark(m.Key)
	}
	return nil
}

// versionString accepts a string or a number; numbers keep their literal
// text, so 1.0 becomes "1.0".
func versionString(v Value) (string, error) {
	switch v.Kind() {
	case StringKind, NumberKind:
		return v.Text(), nil
	default:
		return "", violation("", "expected a string or number, got %s", v.Kind())
	}
}

// decodeList decodes each element of a sequence.
func decodeList[T any](v Value, each func(Value) (T, error)) ([]T, error) {
	if v.Kind() != ListKind {
		return nil, violation("", "expected a sequence, got %s", v.Kind())
	}
	out := make([]T, 0, v.Len())
	for i, item := range v.Items() {
		e, err := each(item)
		if err != nil {
			return nil, inField(fmt.Sprintf("[%d]", i), err)
		}
		out = append(out, e)
	}
	return out, nil
}

func decodePackage(v Value) (Package, error) {
	var p Package
	members, err := record(v, "name", "version", "description", "authors")
	if err != nil {
		return Package{}, err
	}
	err = assignStrings(members, &p.set, map[string]*string{
		"name":        &p.Name,
		"description": &p.Description,
	})
	if err != nil {
		return Package{}, err
	}
	for _, m := range members {
		if m.Value.IsNull() {
			continue
		}
		switch m.Key {
		case "version":
			if p.Version, err = versionString(m.Value); err != nil {
				return Package{}, inField(m.Key, err)
			}
			p.set.mark(m.Key)
		case "authors":
			if p.Authors, err = decodeAuthors(m.Value); err != nil {
				return Package{}, inField(m.Key, err)
			}
			p.set.mark(m.Key)
		}
	}

	for _, field := range []string{"name", "version", "description"} {
		if p.isEmpty(field) {
			return Package{}, violation(field, "field required")
		}
	}
	if len(p.Authors) == 0 {
		return Package{}, violation("authors", "at least one author is required")
	}
	return p, nil
}

func decodeAuthors(v Value) ([]string, error) {
	return decodeList(v, func(item Value) (string, error) {
		if item.Kind() != StringKind {
			return "", violation("", "expected a string, got %s", item.Kind())
		}
		return item.Text(), nil
	})
}

func decodeCodeEntry(r *PathResolver) func(Value) (CodeEntry, error) {
	return func(v Value) (CodeEntry, error) {
		var e CodeEntry
		members, err := record(v, "path", "description", "license")
		if err == nil {
			err = assignStrings(members, &e.set, map[string]*string{
				"path": &e.Path, "description": &e.Description, "license": &e.License,
			})
		}
		if err == nil {
			err = resolveEntry(r, &e)
		}
		return e, err
	}
}

func decodeDatasetEntry(r *PathResolver) func(Value) (DatasetEntry, error) {
	return func(v Value) (DatasetEntry, error) {
		var e DatasetEntry
		members, err := record(v, "name", "path", "description", "license")
		if err == nil {
			err = assignStrings(members, &e.set, map[string]*string{
				"name": &e.Name, "path": &e.Path, "description": &e.Description, "license": &e.License,
			})
		}
		if err == nil {
			err = resolveEntry(r, &e)
		}
		return e, err
	}
}

func decodeDocsEntry(r *PathResolver) func(Value) (DocsEntry, error) {
	return func(v Value) (DocsEntry, error) {
		var e DocsEntry
		members, err := record(v, "path", "description")
		if err == nil {
			err = assignStrings(members, &e.set, map[string]*string{
				"path": &e.Path, "description": &e.Description,
			})
		}
		if err == nil {
			err = resolveEntry(r, &e)
		}
		return e, err
	}
}

func decodeModelPart(r *PathResolver) func(Value) (ModelPart, error) {
	return func(v Value) (ModelPart, error) {
		var e ModelPart
		members, err := record(v, "name", "path", "type")
		if err == nil {
			err = assignStrings(members, &e.set, map[string]*string{
				"name": &e.Name, "path": &e.Path, "type": &e.Type,
			})
		}
		if err == nil {
			err = resolveEntry(r, &e)
		}
		return e, err
	}
}

func decodeModelSection(r *PathResolver, v Value) (*ModelSection, error) {
	var m ModelSection
	members, err := record(v, "name", "path", "framework", "version", "description", "license", "parts", "parameters")
	if err != nil {
		return nil, err
	}
	err = assignStrings(members, &m.set, map[string]*string{
		"name":        &m.Name,
		"path":        &m.Path,
		"framework":   &m.Framework,
		"description": &m.Description,
		"license":     &m.License,
	})
	if err != nil {
		return nil, err
	}
	for _, mem := range members {
		if mem.Value.IsNull() {
			continue
		}
		switch mem.Key {
		case "version":
			if m.Version, err = versionString(mem.Value); err != nil {
				return nil, inField(mem.Key, err)
			}
		case "parts":
			if m.Parts, err = decodeList(mem.Value, decodeModelPart(r)); err != nil {
				return nil, inField(mem.Key, err)
			}
		case "parameters":
			m.Parameters = mem.Value
		default:
			continue
		}
		m.set.mark(mem.Key)
	}
	if err := resolveEntry(r, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
