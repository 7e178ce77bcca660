package manifest

import (
	"bytes"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"
)

// maxAliasDepth bounds alias expansion so self-referencing documents fail
// instead of recursing forever.
const maxAliasDepth = 64

// Alias expansion limits, matching the thresholds yaml.v3 applies when it
// decodes into Go values: once a document has decoded more than
// minAliasNodes nodes through aliases, the share of aliased nodes may not
// exceed aliasRatio(total).
const (
	minAliasNodes      = 100
	minDecodedNodes    = 1000
	aliasRatioRangeLow = 400000
	aliasRatioRangeHi  = 4000000
)

func aliasRatio(decoded int) float64 {
	switch {
	case decoded <= aliasRatioRangeLow:
		return 0.99
	case decoded >= aliasRatioRangeHi:
		return 0.10
	default:
		return 0.99 - 0.89*(float64(decoded-aliasRatioRangeLow)/float64(aliasRatioRangeHi-aliasRatioRangeLow))
	}
}

var yamlLinePattern = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// decodeYAML parses YAML text into a Value. Scalar text is kept as written,
// so numbers can later be coerced to strings without losing their form.
func decodeYAML(data []byte, file string) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, newParseError(data, file, err)
	}
	d := &nodeDecoder{file: file}
	return d.decode(&doc, 0)
}

type nodeDecoder struct {
	file    string
	decoded int
	aliased int
}

// decode converts n to a Value. depth counts the aliases being expanded.
func (d *nodeDecoder) decode(n *yaml.Node, depth int) (Value, error) {
	d.decoded++
	if depth > 0 {
		d.aliased++
	}
	if d.aliased > minAliasNodes && d.decoded > minDecodedNodes &&
		float64(d.aliased)/float64(d.decoded) > aliasRatio(d.decoded) {
		return Value{}, d.errorAt(n, "document contains excessive aliasing")
	}

	switch n.Kind {
	case 0:
		return Null(), nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return d.decode(n.Content[0], depth)
	case yaml.AliasNode:
		if depth >= maxAliasDepth {
			return Value{}, d.errorAt(n, "alias nesting exceeds %d levels", maxAliasDepth)
		}
		return d.decode(n.Alias, depth+1)
	case yaml.ScalarNode:
		return d.scalar(n)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			item, err := d.decode(c, depth)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return List(items...), nil
	case yaml.MappingNode:
		members := make([]Member, 0, len(n.Content)/2)
		seen := make(map[string]bool, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode := n.Content[i]
			if keyNode.Kind == yaml.AliasNode {
				keyNode = keyNode.Alias
			}
			if keyNode.Kind != yaml.ScalarNode {
				return Value{}, d.errorAt(n.Content[i], "mapping keys must be scalars")
			}
			key := keyNode.Value
			if seen[key] {
				return Value{}, d.errorAt(n.Content[i], "duplicate key %q", key)
			}
			seen[key] = true
			v, err := d.decode(n.Content[i+1], depth)
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Key: key, Value: v})
		}
		return Map(members...), nil
	}
	return Value{}, d.errorAt(n, "unsupported YAML node")
}

func (d *nodeDecoder) scalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, d.errorAt(n, "invalid boolean %q", n.Value)
		}
		return Bool(b), nil
	case "!!int", "!!float":
		v, err := Number(n.Value)
		if err != nil {
			return Value{}, d.wrapAt(n, err)
		}
		return v, nil
	default:
		return String(n.Value), nil
	}
}

func (d *nodeDecoder) errorAt(n *yaml.Node, format string, args ...any) error {
	return &ParseError{
		File:   d.file,
		Line:   n.Line,
		Column: n.Column,
		Msg:    fmt.Sprintf(format, args...),
		Err:    ErrParse,
	}
}

// wrapAt is errorAt for a cause that must stay matchable with errors.Is.
func (d *nodeDecoder) wrapAt(n *yaml.Node, err error) error {
	return &ParseError{
		File:   d.file,
		Line:   n.Line,
		Column: n.Column,
		Msg:    err.Error(),
		Err:    err,
	}
}

// newParseError maps a yaml.v3 syntax error to a ParseError with a 1-indexed
// line and column. The parser reports lines inconsistently (scanner errors
// are 1-indexed, parser errors carry the 0-indexed line of the enclosing
// construct, and some errors at end of input carry none), so the reported
// line is checked by re-parsing the document up to that line: if that prefix
// still parses, the failure lies on the following line. Errors about an
// unclosed flow collection or quoted string point past the end of the line.
func newParseError(data []byte, file string, err error) *ParseError {
	pe := &ParseError{File: file, Msg: strings.TrimPrefix(err.Error(), "yaml: "), Err: err}
	lines := strings.Split(string(data), "\n")

	reported := 0
	if m := yamlLinePattern.FindStringSubmatch(err.Error()); m != nil {
		reported, _ = strconv.Atoi(m[1])
		pe.Msg = m[2]
	}
	line := reported
	if line == 0 || prefixParses(lines, line) {
		line++
	}
	pe.Line = min(max(line, 1), max(len(lines), 1))
	text := lines[pe.Line-1]
	pe.Column = firstColumn(text)
	if unterminated(pe.Msg) {
		pe.Column = utf8.RuneCountInString(strings.TrimRight(text, " \t\r")) + 1
	}
	return pe
}

func unterminated(msg string) bool {
	return strings.Contains(msg, "did not find expected ',' or") ||
		strings.Contains(msg, "unexpected end of stream")
}

func prefixParses(lines []string, n int) bool {
	if n > len(lines) {
		return true
	}
	var node yaml.Node
	return yaml.Unmarshal([]byte(strings.Join(lines[:n], "\n")), &node) == nil
}

// firstColumn returns the 1-indexed column of the first non-blank character.
func firstColumn(line string) int {
	trimmed := strings.TrimLeft(line, " \t")
	return len(line) - len(trimmed) + 1
}

// encodeYAML renders v with two-space indentation. Strings that would read
// back as another type are quoted; multi-line strings are double-quoted.
func encodeYAML(v Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toNode(v)); err != nil {
		return nil, fmt.Errorf("encoding Kitfile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding Kitfile: %w", err)
	}
	return buf.Bytes(), nil
}

func toNode(v Value) *yaml.Node {
	switch v.Kind() {
	case BoolKind:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.boolean)}
	case NumberKind:
		text := v.Text()
		if c, err := canonicalNumber(text); err == nil {
			text = c
		}
		tag := "!!float"
		if _, ok := new(big.Int).SetString(text, 10); ok {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: text}
	case StringKind:
		n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Text()}
		if strings.Contains(v.Text(), "\n") {
			n.Style = yaml.DoubleQuotedStyle
		}
		return n
	case ListKind:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Items() {
			n.Content = append(n.Content, toNode(item))
		}
		return n
	case MapKind:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range v.Members() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key},
				toNode(m.Value))
		}
		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
