package manifest

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// DefaultFileName is the conventional name of a Kitfile on disk.
const DefaultFileName = "Kitfile"

// TopLevelKeys lists the keys a Kitfile may contain, in declared order.
var TopLevelKeys = []string{"manifestVersion", "package", "code", "datasets", "docs", "model"}

// Kitfile is a validated manifest. Every Kitfile returned by this package
// satisfies all field rules, resolves all declared paths, and has at least
// one content section. Use Set to replace a section; the change is applied
// only if the resulting Kitfile is still valid.
//
// A Kitfile has no internal locking; callers sharing one across goroutines
// must serialize access themselves.
type Kitfile struct {
	manifestVersion string
	pkg             Package
	code            []CodeEntry
	datasets        []DatasetEntry
	docs            []DocsEntry
	model           *ModelSection

	set      fieldSet
	resolver *PathResolver
	logger   *slog.Logger
}

// Option configures how a Kitfile is built.
type Option func(*options)

type options struct {
	workDir string
	logger  *slog.Logger
}

// WithWorkDir resolves entry paths against dir instead of the current
// working directory.
func WithWorkDir(dir string) Option {
	return func(o *options) { o.workDir = dir }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Build constructs a Kitfile from plain Go data, typically a
// map[string]any keyed by the top-level Kitfile keys.
func Build(data map[string]any, opts ...Option) (*Kitfile, error) {
	v, err := FromAny(data)
	if err != nil {
		return nil, err
	}
	return BuildValue(v, opts...)
}

// BuildValue constructs a Kitfile from a Value tree.
func BuildValue(data Value, opts ...Option) (*Kitfile, error) {
	o := newOptions(opts)
	r, err := NewPathResolver(o.workDir)
	if err != nil {
		return nil, err
	}
	return build(data, r, o.logger)
}

// Parse constructs a Kitfile from YAML text.
func Parse(data []byte, opts ...Option) (*Kitfile, error) {
	return parse(data, "", opts)
}

// Load reads and constructs the Kitfile at path.
func Load(path string, opts ...Option) (*Kitfile, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data, path, opts)
}

func parse(data []byte, file string, opts []Option) (*Kitfile, error) {
	v, err := decodeYAML(data, file)
	if err != nil {
		return nil, err
	}
	k, err := BuildValue(v, opts...)
	if err != nil {
		return nil, err
	}
	if file != "" {
		k.logger.Debug("loaded Kitfile", slog.String("path", file), slog.Int("entries", k.entryCount()))
	}
	return k, nil
}

func build(data Value, r *PathResolver, logger *slog.Logger) (*Kitfile, error) {
	if data.Kind() != MapKind {
		return nil, violation("", "Kitfile must be a mapping with keys %s, got %s",
			strings.Join(TopLevelKeys, ", "), data.Kind())
	}
	if err := checkUTF8(data); err != nil {
		return nil, err
	}
	for _, m := range data.Members() {
		if !slices.Contains(TopLevelKeys, m.Key) {
			return nil, violation(m.Key, "unrecognized top-level key; allowed keys are %s",
				strings.Join(TopLevelKeys, ", "))
		}
	}

	k := &Kitfile{resolver: r, logger: logger}
	for _, key := range TopLevelKeys {
		v, ok := data.Get(key)
		if !ok || v.IsNull() {
			continue
		}
		if err := k.decodeSection(key, v); err != nil {
			return nil, inField(key, err)
		}
		k.set.mark(key)
	}

	if !k.set.present("manifestVersion", true) {
		return nil, violation("manifestVersion", "field required")
	}
	if !k.set.present("package", true) {
		return nil, violation("package", "field required")
	}
	if err := k.checkContent(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Kitfile) decodeSection(key string, v Value) error {
	var err error
	switch key {
	case "manifestVersion":
		k.manifestVersion, err = versionString(v)
		if err == nil && k.manifestVersion == "" {
			err = violation("", "must not be empty")
		}
	case "package":
		k.pkg, err = decodePackage(v)
	case "code":
		k.code, err = decodeList(v, decodeCodeEntry(k.resolver))
	case "datasets":
		k.datasets, err = decodeList(v, decodeDatasetEntry(k.resolver))
	case "docs":
		k.docs, err = decodeList(v, decodeDocsEntry(k.resolver))
	case "model":
		k.model, err = decodeModelSection(k.resolver, v)
	}
	return err
}

// checkContent enforces that the Kitfile describes something.
func (k *Kitfile) checkContent() error {
	if len(k.code) == 0 && len(k.datasets) == 0 && len(k.docs) == 0 && k.model == nil {
		return violation("", "Kitfile must declare at least one of code, datasets, docs, or model")
	}
	return nil
}

func (k *Kitfile) entryCount() int {
	n := len(k.code) + len(k.datasets) + len(k.docs)
	if k.model != nil {
		n += 1 + len(k.model.Parts)
	}
	return n
}

// ManifestVersion returns the manifest format version.
func (k *Kitfile) ManifestVersion() string { return k.manifestVersion }

// Package returns a copy of the package section.
func (k *Kitfile) Package() Package { return k.pkg.clone() }

// Code returns a copy of the code entries.
func (k *Kitfile) Code() []CodeEntry { return slices.Clone(k.code) }

// Datasets returns a copy of the dataset entries.
func (k *Kitfile) Datasets() []DatasetEntry { return slices.Clone(k.datasets) }

// Docs returns a copy of the docs entries.
func (k *Kitfile) Docs() []DocsEntry { return slices.Clone(k.docs) }

// Model returns a copy of the model section, or nil if there is none.
func (k *Kitfile) Model() *ModelSection {
	if k.model == nil {
		return nil
	}
	m := k.model.clone()
	return &m
}

// IsSet reports whether the top-level key was explicitly provided.
func (k *Kitfile) IsSet(key string) bool { return k.set.present(key, true) }

// Set replaces the top-level key with value, which may be plain data, a
// Value, or one of the record types (Package, []CodeEntry, *ModelSection,
// ...). A nil value removes the key. The Kitfile is left unchanged if the
// result would be invalid.
func (k *Kitfile) Set(key string, value any) error {
	if !slices.Contains(TopLevelKeys, key) {
		return violation(key, "unrecognized top-level key; allowed keys are %s", strings.Join(TopLevelKeys, ", "))
	}
	v, err := FromAny(value)
	if err != nil {
		return inField(key, err)
	}

	current := k.toValue(emitSet)
	members := make([]Member, 0, len(TopLevelKeys))
	replaced := false
	for _, m := range current.Members() {
		if m.Key == key {
			replaced = true
			if v.IsNull() {
				continue
			}
			m.Value = v
		}
		members = append(members, m)
	}
	if !replaced && !v.IsNull() {
		members = append(members, Member{Key: key, Value: v})
	}

	next, err := build(Map(members...), k.resolver, k.logger)
	if err != nil {
		return err
	}
	*k = *next
	return nil
}

// SetManifestVersion replaces the manifest version.
func (k *Kitfile) SetManifestVersion(v string) error { return k.Set("manifestVersion", v) }

// SetPackage replaces the package section.
func (k *Kitfile) SetPackage(p Package) error { return k.Set("package", p) }

// SetCode replaces the code entries. An empty slice keeps the key present.
func (k *Kitfile) SetCode(entries []CodeEntry) error { return k.Set("code", listOrEmpty(entries)) }

// SetDatasets replaces the dataset entries.
func (k *Kitfile) SetDatasets(entries []DatasetEntry) error {
	return k.Set("datasets", listOrEmpty(entries))
}

// SetDocs replaces the docs entries.
func (k *Kitfile) SetDocs(entries []DocsEntry) error { return k.Set("docs", listOrEmpty(entries)) }

// SetModel replaces the model section. A nil model removes it.
func (k *Kitfile) SetModel(m *ModelSection) error { return k.Set("model", m) }

// listOrEmpty turns a nil slice into an empty one so Set records the key
// instead of removing it.
func listOrEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (k *Kitfile) toValue(mode emitMode) Value {
	b := newRecordBuilder(mode, k.set)
	b.str("manifestVersion", k.manifestVersion)
	b.add("package", k.pkg.toValue(mode), false)

	code := make([]Value, len(k.code))
	for i, e := range k.code {
		code[i] = e.toValue(mode)
	}
	b.add("code", List(code...), len(code) == 0)

	datasets := make([]Value, len(k.datasets))
	for i, e := range k.datasets {
		datasets[i] = e.toValue(mode)
	}
	b.add("datasets", List(datasets...), len(datasets) == 0)

	docs := make([]Value, len(k.docs))
	for i, e := range k.docs {
		docs[i] = e.toValue(mode)
	}
	b.add("docs", List(docs...), len(docs) == 0)

	model := Null()
	if k.model != nil {
		model = k.model.toValue(mode)
	}
	b.add("model", model, k.model == nil)
	return b.value()
}

// Value returns the Kitfile as a Value tree holding the fields that were
// explicitly provided.
func (k *Kitfile) Value() Value { return k.toValue(emitSet) }

// Serialize renders the Kitfile as YAML in declared field order. With
// suppressEmpty, fields that were never provided, are null, or are empty
// sequences are omitted; otherwise every field is written, defaults
// included. Output is deterministic.
func (k *Kitfile) Serialize(suppressEmpty bool) ([]byte, error) {
	mode := emitNonEmpty
	if !suppressEmpty {
		mode = emitAll
	}
	return encodeYAML(k.toValue(mode))
}

// YAML is Serialize(true) returned as a string.
func (k *Kitfile) YAML() (string, error) {
	out, err := k.Serialize(true)
	return string(out), err
}

// Save writes the serialized Kitfile to path.
func (k *Kitfile) Save(path string) error {
	data, err := k.Serialize(true)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing Kitfile %s: %w", path, err)
	}
	k.logger.Debug("saved Kitfile", slog.String("path", path))
	return nil
}

// Print writes a short header followed by the serialized Kitfile.
func (k *Kitfile) Print(w io.Writer) error {
	data, err := k.Serialize(true)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Kitfile Contents...\n===================\n\n%s", data)
	return err
}

// MarshalJSON renders the non-empty fields as JSON in declared order.
func (k *Kitfile) MarshalJSON() ([]byte, error) {
	return k.toValue(emitNonEmpty).MarshalJSON()
}

// Equal reports whether k and other hold the same field values. Unset fields
// compare equal to empty ones, and parameters compare in normalized form.
func (k *Kitfile) Equal(other *Kitfile) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.toValue(emitAll).Equal(other.toValue(emitAll))
}
