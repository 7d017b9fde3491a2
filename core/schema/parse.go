package schema

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFile parses a schema definition from a YAML file. The result is
// unfixed; run Fix before using it for layout.
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: CodeIO, Entity: path, Reason: "read file", Err: err}
	}
	return Parse(data)
}

// Parse parses a schema definition from YAML bytes. The result is
// unfixed; run Fix before using it for layout.
func Parse(data []byte) (*Schema, error) {
	var doc sourceDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Code: CodeParse, Reason: "invalid yaml", Err: err}
	}

	s := New()
	var err error
	if s.Options, err = decodeOptions(&doc.Options); err != nil {
		return nil, err
	}
	if s.Enums, err = decodeEnums(&doc.Enums); err != nil {
		return nil, err
	}
	if s.Unions, err = decodeUnions(&doc.Unions); err != nil {
		return nil, err
	}
	for _, sf := range doc.Aliases {
		f, err := parseField(sf)
		if err != nil {
			return nil, err
		}
		s.Aliases = append(s.Aliases, f)
	}
	for _, sm := range doc.Messages {
		m, err := parseMessage(sm)
		if err != nil {
			return nil, err
		}
		s.Messages = append(s.Messages, m)
	}
	for _, url := range doc.Imports {
		s.Imports = append(s.Imports, Import{URL: url})
	}
	return s, nil
}

// sourceDoc mirrors the YAML document layout. Sections whose declaration
// order is significant are decoded through yaml.Node to preserve it.
type sourceDoc struct {
	Options  yaml.Node       `yaml:"options"`
	Enums    yaml.Node       `yaml:"enums"`
	Unions   yaml.Node       `yaml:"unions"`
	Aliases  []sourceField   `yaml:"aliases"`
	Messages []sourceMessage `yaml:"messages"`
	Imports  []string        `yaml:"imports"`
}

type sourceMessage struct {
	Name    string        `yaml:"name"`
	ID      int32         `yaml:"id"`
	Options yaml.Node     `yaml:"options"`
	Enums   yaml.Node     `yaml:"enums"`
	Unions  yaml.Node     `yaml:"unions"`
	Fields  []sourceField `yaml:"fields"`
}

type sourceField struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Options yaml.Node `yaml:"options"`

	// Annotations. At most one of fixed/time/bits may be present.
	Fixed      *uint       `yaml:"fixed"`
	Time       string      `yaml:"time"` // "point" or "duration"
	Resolution string      `yaml:"resolution"`
	Bits       []sourceBit `yaml:"bits"`

	PtrVersion string `yaml:"optr-version"`
	CountType  string `yaml:"count-type"`
}

type sourceBit struct {
	Name   string `yaml:"name"`
	Offset uint   `yaml:"offset"`
	Size   uint   `yaml:"size"`
}

type sourceEnum struct {
	Type    string    `yaml:"type"`
	Values  yaml.Node `yaml:"values"`
	Options yaml.Node `yaml:"options"`
}

func parseMessage(sm sourceMessage) (*Message, error) {
	if !isValidIdentifier(sm.Name) {
		return nil, errorf(CodeParse, sm.Name, "message name is not a valid identifier")
	}
	m := &Message{Name: sm.Name, ID: sm.ID}
	var err error
	if m.Options, err = decodeOptions(&sm.Options); err != nil {
		return nil, err
	}
	if m.Enums, err = decodeEnums(&sm.Enums); err != nil {
		return nil, err
	}
	if m.Unions, err = decodeUnions(&sm.Unions); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(sm.Fields))
	for _, sf := range sm.Fields {
		f, err := parseField(sf)
		if err != nil {
			return nil, fmt.Errorf("message %q: %w", sm.Name, err)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, errorf(CodeParse, sm.Name+"."+f.Name, "duplicate field name")
		}
		seen[f.Name] = struct{}{}
		m.Fields = append(m.Fields, f)
	}
	return m, nil
}

func parseField(sf sourceField) (*Field, error) {
	if !isValidIdentifier(sf.Name) {
		return nil, errorf(CodeParse, sf.Name, "field name is not a valid identifier")
	}
	if sf.Type == "" {
		return nil, errorf(CodeParse, sf.Name, "field has no type")
	}
	f := &Field{Name: sf.Name}
	var err error
	if f.Options, err = decodeOptions(&sf.Options); err != nil {
		return nil, err
	}
	if err := parseTypeString(f, sf.Type, sf.CountType, sf.PtrVersion); err != nil {
		return nil, err
	}
	if err := applyAnnotations(f, sf); err != nil {
		return nil, err
	}
	return f, nil
}

// parseTypeString interprets a source type string: scalar names, byte<N>,
// string, <type>[<count>] arrays, *<type> pointers, or a named reference
// resolved later by the fix pass.
func parseTypeString(f *Field, ts, countType, ptrVersion string) error {
	if rest, ok := strings.CutPrefix(ts, "*"); ok {
		ver, err := ParseOffsetPtrVersion(ptrVersion)
		if err != nil {
			return errorf(CodeParse, f.Name, "%v", err)
		}
		f.Type = TypePointer
		f.PtrVersion = ver
		f.Ptr = &Field{Name: f.Name}
		// Nested pointers always use the default layout.
		return parseTypeString(f.Ptr, rest, countType, "")
	}

	if open := strings.IndexByte(ts, '['); open >= 0 && strings.HasSuffix(ts, "]") {
		count, err := strconv.Atoi(ts[open+1 : len(ts)-1])
		if err != nil || count < 0 {
			return errorf(CodeParse, f.Name, "invalid array count in %q", ts)
		}
		ct := countTypeFor(count)
		if countType != "" {
			t, ok := scalarTypes[countType]
			if !ok || !t.IsInteger() {
				return errorf(CodeParse, f.Name, "count-type %q is not an integer type", countType)
			}
			ct = t
		}
		f.Type = TypeArray
		f.MaxCount = count
		f.CountField = &Field{Name: f.Name + "_count", Type: ct}
		f.Array = &Field{Name: f.Name}
		return parseTypeString(f.Array, ts[:open], "", "")
	}

	if ts == "string" {
		ver, err := ParseOffsetPtrVersion(ptrVersion)
		if err != nil {
			return errorf(CodeParse, f.Name, "%v", err)
		}
		f.Type = TypePointer
		f.Sub = SubByteString
		f.PtrVersion = ver
		f.Ptr = &Field{Name: f.Name, Type: TypeInt8, Sub: SubByteString}
		return nil
	}

	if t, ok := scalarTypes[ts]; ok {
		f.Type = t
		return nil
	}

	if rest, ok := strings.CutPrefix(ts, "byte"); ok && rest != "" {
		if n, err := strconv.Atoi(rest); err == nil {
			if n <= 0 {
				return errorf(CodeParse, f.Name, "invalid bytes size in %q", ts)
			}
			f.Type = TypeBytes
			f.Size = n
			return nil
		}
	}

	if !isValidIdentifier(ts) {
		return errorf(CodeParse, f.Name, "invalid type %q", ts)
	}
	f.TypeName = ts
	return nil
}

// applyAnnotations attaches sub-type annotations to the field the type
// string bottoms out at: arrays and pointers annotate their element, a
// string or scalar annotates itself.
func applyAnnotations(f *Field, sf sourceField) error {
	target := annotationTarget(f)

	n := 0
	if sf.Fixed != nil {
		n++
	}
	if sf.Time != "" {
		n++
	}
	if len(sf.Bits) > 0 {
		n++
	}
	if n == 0 {
		if sf.Resolution != "" {
			return errorf(CodeParse, f.Name, "resolution requires a time annotation")
		}
		return nil
	}
	if n > 1 {
		return errorf(CodeParse, f.Name, "conflicting annotations")
	}
	if target.Sub != SubNone {
		return errorf(CodeParse, f.Name, "annotation conflicts with %s type", target.Sub)
	}

	switch {
	case sf.Fixed != nil:
		target.Sub = SubFixedPoint
		target.FixedPrecision = *sf.Fixed
	case sf.Time != "":
		switch sf.Time {
		case "point":
			target.Sub = SubTimePoint
		case "duration":
			target.Sub = SubDuration
		default:
			return errorf(CodeParse, f.Name, "time must be %q or %q, got %q", "point", "duration", sf.Time)
		}
		if sf.Resolution != "" {
			r, err := ParseTimeResolution(sf.Resolution)
			if err != nil {
				return errorf(CodeParse, f.Name, "%v", err)
			}
			target.Resolution = r
		}
	case len(sf.Bits) > 0:
		target.Sub = SubBits
		for _, b := range sf.Bits {
			if !isValidIdentifier(b.Name) {
				return errorf(CodeParse, f.Name, "bit field name %q is not a valid identifier", b.Name)
			}
			target.Bits = append(target.Bits, BitField{Name: b.Name, Offset: b.Offset, Size: b.Size})
		}
	}
	return nil
}

func annotationTarget(f *Field) *Field {
	switch f.Type {
	case TypeArray:
		return annotationTarget(f.Array)
	case TypePointer:
		if f.Sub == SubByteString {
			return f
		}
		return annotationTarget(f.Ptr)
	default:
		return f
	}
}

var scalarTypes = map[string]FieldType{
	"int8":       TypeInt8,
	"int16":      TypeInt16,
	"int32":      TypeInt32,
	"int64":      TypeInt64,
	"uint8":      TypeUInt8,
	"uint16":     TypeUInt16,
	"uint32":     TypeUInt32,
	"uint64":     TypeUInt64,
	"double":     TypeDouble,
	"decimal128": TypeDecimal128,
}

// countTypeFor picks the narrowest signed count type covering n.
func countTypeFor(n int) FieldType {
	switch {
	case n <= 0x7f:
		return TypeInt8
	case n <= 0x7fff:
		return TypeInt16
	default:
		return TypeInt32
	}
}

func decodeOptions(node *yaml.Node) (Options, error) {
	if node.IsZero() {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, errorf(CodeParse, "", "options must be a mapping")
	}
	var opts Options
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		opt := Option{Name: key.Value}
		if value.Kind == yaml.ScalarNode && value.Tag != "!!null" {
			v := value.Value
			opt.Value = &v
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

func decodeEnums(node *yaml.Node) ([]*Enum, error) {
	if node.IsZero() {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, errorf(CodeParse, "", "enums must be a mapping")
	}
	var enums []*Enum
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if !isValidIdentifier(key.Value) {
			return nil, errorf(CodeParse, key.Value, "enum name is not a valid identifier")
		}
		var se sourceEnum
		if err := value.Decode(&se); err != nil {
			return nil, errorf(CodeParse, key.Value, "invalid enum: %v", err)
		}
		e := &Enum{Name: key.Value, Type: TypeInt32}
		if se.Type != "" {
			t, ok := scalarTypes[se.Type]
			if !ok {
				return nil, errorf(CodeParse, key.Value, "unknown enum type %q", se.Type)
			}
			e.Type = t
		}
		var err error
		if e.Options, err = decodeOptions(&se.Options); err != nil {
			return nil, err
		}
		if e.Values, err = decodeEnumValues(key.Value, &se.Values); err != nil {
			return nil, err
		}
		enums = append(enums, e)
	}
	return enums, nil
}

func decodeEnumValues(enum string, node *yaml.Node) ([]EnumValue, error) {
	if node.IsZero() {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, errorf(CodeParse, enum, "enum values must be a mapping")
	}
	var values []EnumValue
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		v, err := strconv.ParseInt(value.Value, 0, 64)
		if err != nil {
			return nil, errorf(CodeParse, enum, "enum value %s: %v", key.Value, err)
		}
		values = append(values, EnumValue{Name: key.Value, Value: v})
	}
	return values, nil
}

func decodeUnions(node *yaml.Node) ([]*Union, error) {
	if node.IsZero() {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, errorf(CodeParse, "", "unions must be a mapping")
	}
	var unions []*Union
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if !isValidIdentifier(key.Value) {
			return nil, errorf(CodeParse, key.Value, "union name is not a valid identifier")
		}
		var fields []sourceField
		if err := value.Decode(&fields); err != nil {
			return nil, errorf(CodeParse, key.Value, "invalid union: %v", err)
		}
		if len(fields) == 0 {
			return nil, errorf(CodeParse, key.Value, "union has no variants")
		}
		u := &Union{
			Name:    key.Value,
			TypePtr: &Field{Name: "_type", Type: TypeUInt8},
		}
		for _, sf := range fields {
			f, err := parseField(sf)
			if err != nil {
				return nil, fmt.Errorf("union %q: %w", key.Value, err)
			}
			u.Fields = append(u.Fields, f)
		}
		unions = append(unions, u)
	}
	return unions, nil
}

// isValidIdentifier checks if a string is a valid identifier.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		if i == 0 {
			if !isLetter(c) && c != '_' {
				return false
			}
		} else {
			if !isLetter(c) && !isDigit(c) && c != '_' {
				return false
			}
		}
	}
	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
