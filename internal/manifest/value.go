package manifest

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	NullKind Kind = iota
	BoolKind
	NumberKind
	StringKind
	ListKind
	MapKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "boolean"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	case ListKind:
		return "sequence"
	case MapKind:
		return "mapping"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a JSON-compatible tree: null, boolean, number, string, ordered
// sequence, or ordered mapping. It is the raw form of Kitfile data and the
// representation of model parameters.
//
// Numbers keep the literal text they were written with; Normalize converts
// them to canonical decimal form.
type Value struct {
	kind    Kind
	boolean bool
	text    string
	items   []Value
	members []Member
}

// Member is one key/value pair of a mapping Value.
type Member struct {
	Key   string
	Value Value
}

// Null returns the null Value. The zero Value is also null.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: BoolKind, boolean: b} }

// String returns a string Value.
func String(s string) Value { return Value{kind: StringKind, text: s} }

// Int returns a number Value.
func Int(i int64) Value { return Value{kind: NumberKind, text: strconv.FormatInt(i, 10)} }

// Float returns a number Value. Integral values keep a trailing ".0" so that
// coercion to string preserves the float form (1.0 becomes "1.0").
func Float(f float64) Value {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return Value{kind: NumberKind, text: s}
}

// Number returns a number Value from its literal text, which may use any
// notation YAML accepts for integers and floats (0xFF, 1_000, 1.2e+3).
func Number(text string) (Value, error) {
	if _, err := canonicalNumber(text); err != nil {
		return Value{}, err
	}
	return Value{kind: NumberKind, text: text}, nil
}

// List returns a sequence Value.
func List(items ...Value) Value {
	return Value{kind: ListKind, items: items}
}

// Map returns a mapping Value with members in the given order.
func Map(members ...Member) Value {
	return Value{kind: MapKind, members: members}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == NullKind }

// Text returns the string content of a string Value or the literal text of a
// number Value, and the empty string otherwise.
func (v Value) Text() string { return v.text }

// AsBool reports the boolean held by v, if any.
func (v Value) AsBool() (b, ok bool) { return v.boolean, v.kind == BoolKind }

// Items returns the elements of a sequence Value.
func (v Value) Items() []Value { return v.items }

// Members returns the pairs of a mapping Value in order.
func (v Value) Members() []Member { return v.members }

// Get returns the value stored under key in a mapping Value.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Len returns the number of elements of a sequence or mapping.
func (v Value) Len() int {
	switch v.kind {
	case ListKind:
		return len(v.items)
	case MapKind:
		return len(v.members)
	default:
		return 0
	}
}

// Normalize returns a copy of v with mapping keys sorted at every level and
// numbers in canonical decimal form (0xFF becomes 255, 1.2e+3 becomes 1200).
func (v Value) Normalize() Value {
	switch v.kind {
	case NumberKind:
		if c, err := canonicalNumber(v.text); err == nil {
			return Value{kind: NumberKind, text: c}
		}
		return v
	case ListKind:
		items := make([]Value, len(v.items))
		for i, item := range v.items {
			items[i] = item.Normalize()
		}
		return List(items...)
	case MapKind:
		members := make([]Member, len(v.members))
		for i, m := range v.members {
			members[i] = Member{Key: m.Key, Value: m.Value.Normalize()}
		}
		slices.SortStableFunc(members, func(a, b Member) int { return strings.Compare(a.Key, b.Key) })
		return Map(members...)
	default:
		return v
	}
}

// Equal reports whether v and other hold the same data. Numbers compare by
// canonical value and mappings compare without regard to key order.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case NullKind:
		return true
	case BoolKind:
		return v.boolean == other.boolean
	case StringKind:
		return v.text == other.text
	case NumberKind:
		a, errA := canonicalNumber(v.text)
		b, errB := canonicalNumber(other.text)
		if errA != nil || errB != nil {
			return v.text == other.text
		}
		return a == b
	case ListKind:
		return slices.EqualFunc(v.items, other.items, Value.Equal)
	case MapKind:
		if len(v.members) != len(other.members) {
			return false
		}
		for _, m := range v.members {
			o, ok := other.Get(m.Key)
			if !ok || !m.Value.Equal(o) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON renders v as JSON, keeping mapping members in order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case NullKind:
		buf.WriteString("null")
	case BoolKind:
		buf.WriteString(strconv.FormatBool(v.boolean))
	case NumberKind:
		c, err := canonicalNumber(v.text)
		if err != nil {
			return err
		}
		buf.WriteString(c)
	case StringKind:
		b, err := json.Marshal(v.text)
		if err != nil {
			return err
		}
		buf.Write(b)
	case ListKind:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case MapKind:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := m.Value.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// ToAny converts v to plain Go values: nil, bool, int64 or float64, string,
// []any, and map[string]any.
func (v Value) ToAny() any {
	switch v.kind {
	case BoolKind:
		return v.boolean
	case NumberKind:
		c, err := canonicalNumber(v.text)
		if err != nil {
			return v.text
		}
		if i, err := strconv.ParseInt(c, 10, 64); err == nil {
			return i
		}
		f, _ := strconv.ParseFloat(c, 64)
		return f
	case StringKind:
		return v.text
	case ListKind:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.ToAny()
		}
		return out
	case MapKind:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			out[m.Key] = m.Value.ToAny()
		}
		return out
	default:
		return nil
	}
}

// valuer is implemented by the Kitfile records so they can be passed to
// FromAny (and therefore to Build and Kitfile.Set) like plain data.
type valuer interface {
	toValue(mode emitMode) Value
}

// FromAny converts plain Go data into a Value. It accepts nil, bool, integer
// and float types, strings, slices, maps with string keys, Values, and the
// Kitfile record types. Keys of Go maps are sorted since their order is not
// defined.
func FromAny(data any) (Value, error) {
	switch d := data.(type) {
	case nil:
		return Null(), nil
	case Value:
		return d, nil
	case valuer:
		if rv := reflect.ValueOf(d); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Null(), nil
		}
		return d.toValue(emitSet), nil
	case bool:
		return Bool(d), nil
	case string:
		if !utf8.ValidString(d) {
			return Value{}, errInvalidUTF8(d)
		}
		return String(d), nil
	case int:
		return Int(int64(d)), nil
	case int64:
		return Int(d), nil
	case float64:
		if math.IsInf(d, 0) || math.IsNaN(d) {
			return Value{}, fmt.Errorf("%w: %v is not a JSON-compatible number", ErrSchemaViolation, d)
		}
		return Float(d), nil
	case []string:
		items := make([]Value, len(d))
		for i, s := range d {
			if !utf8.ValidString(s) {
				return Value{}, errInvalidUTF8(s)
			}
			items[i] = String(s)
		}
		return List(items...), nil
	}

	rv := reflect.ValueOf(data)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Null(), nil
		}
		return FromAny(rv.Elem().Interface())
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Value{kind: NumberKind, text: strconv.FormatUint(rv.Uint(), 10)}, nil
	case reflect.Float32:
		return FromAny(rv.Float())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), nil
		}
		items := make([]Value, rv.Len())
		for i := range items {
			item, err := FromAny(rv.Index(i).Interface())
			if err != nil {
				return Value{}, err
			}
			items[i] = item
		}
		return List(items...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, fmt.Errorf("%w: mapping keys must be strings, got %s", ErrSchemaViolation, rv.Type().Key())
		}
		if rv.IsNil() {
			return Null(), nil
		}
		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int { return strings.Compare(a.String(), b.String()) })
		members := make([]Member, 0, len(keys))
		for _, k := range keys {
			if !utf8.ValidString(k.String()) {
				return Value{}, errInvalidUTF8(k.String())
			}
			mv, err := FromAny(rv.MapIndex(k).Interface())
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Key: k.String(), Value: mv})
		}
		return Map(members...), nil
	}
	return Value{}, fmt.Errorf("%w: unsupported value of type %T", ErrSchemaViolation, data)
}

func errInvalidUTF8(s string) error {
	return fmt.Errorf("%w: %q is not valid UTF-8", ErrSchemaViolation, s)
}

// checkUTF8 rejects strings and keys that YAML cannot represent.
func checkUTF8(v Value) error {
	switch v.Kind() {
	case StringKind:
		if !utf8.ValidString(v.Text()) {
			return violation("", "%q is not valid UTF-8", v.Text())
		}
	case ListKind:
		for i, item := range v.Items() {
			if err := checkUTF8(item); err != nil {
				return inField(fmt.Sprintf("[%d]", i), err)
			}
		}
	case MapKind:
		for _, m := range v.Members() {
			if !utf8.ValidString(m.Key) {
				return violation("", "key %q is not valid UTF-8", m.Key)
			}
			if err := checkUTF8(m.Value); err != nil {
				return inField(m.Key, err)
			}
		}
	}
	return nil
}

// canonicalNumber converts a YAML number literal to decimal text.
func canonicalNumber(text string) (string, error) {
	t := strings.ReplaceAll(text, "_", "")
	if i, ok := new(big.Int).SetString(t, 0); ok {
		return i.String(), nil
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return "", fmt.Errorf("%w: %q is not a JSON-compatible number", ErrSchemaViolation, text)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}
