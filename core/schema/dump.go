package schema

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Dump renders the schema in the requested format. The only supported
// format is "yaml" (also selected by the empty string), which re-renders
// the source form with declaration order preserved. Dump output is
// deterministic: two schemas with equal semantic content dump equally.
func (s *Schema) Dump(format string) ([]byte, error) {
	switch format {
	case "", "yaml":
	default:
		return nil, fmt.Errorf("unknown dump format %q", format)
	}

	root := mapping()
	if len(s.Options) > 0 {
		put(root, "options", optionsNode(s.Options))
	}
	if len(s.Imports) > 0 {
		imports := sequence()
		for _, imp := range s.Imports {
			imports.Content = append(imports.Content, strNode(imp.URL))
		}
		put(root, "imports", imports)
	}
	if len(s.Enums) > 0 {
		put(root, "enums", enumsNode(s.Enums))
	}
	if len(s.Unions) > 0 {
		put(root, "unions", unionsNode(s.Unions))
	}
	if len(s.Aliases) > 0 {
		aliases := sequence()
		for _, a := range s.Aliases {
			aliases.Content = append(aliases.Content, fieldNode(a))
		}
		put(root, "aliases", aliases)
	}
	if len(s.Messages) > 0 {
		messages := sequence()
		for _, m := range s.Messages {
			messages.Content = append(messages.Content, messageNode(m))
		}
		put(root, "messages", messages)
	}
	return yaml.Marshal(root)
}

func messageNode(m *Message) *yaml.Node {
	n := mapping()
	put(n, "name", strNode(m.Name))
	if m.ID != 0 {
		put(n, "id", intNode(int64(m.ID)))
	}
	if len(m.Options) > 0 {
		put(n, "options", optionsNode(m.Options))
	}
	if len(m.Enums) > 0 {
		put(n, "enums", enumsNode(m.Enums))
	}
	if len(m.Unions) > 0 {
		put(n, "unions", unionsNode(m.Unions))
	}
	fields := sequence()
	for _, f := range m.Fields {
		fields.Content = append(fields.Content, fieldNode(f))
	}
	put(n, "fields", fields)
	return n
}

func fieldNode(f *Field) *yaml.Node {
	n := mapping()
	n.Style = yaml.FlowStyle
	put(n, "name", strNode(f.Name))
	put(n, "type", strNode(typeString(f)))

	if f.Type == TypePointer && f.PtrVersion != PtrDefault {
		put(n, "optr-version", strNode(f.PtrVersion.String()))
	}
	if f.Type == TypeArray && f.CountField != nil && f.CountField.Type != countTypeFor(f.MaxCount) {
		put(n, "count-type", strNode(f.CountField.Type.String()))
	}

	target := annotationTarget(f)
	switch target.Sub {
	case SubFixedPoint:
		put(n, "fixed", intNode(int64(target.FixedPrecision)))
	case SubTimePoint:
		put(n, "time", strNode("point"))
		if target.Resolution != ResNanosecond {
			put(n, "resolution", strNode(target.Resolution.String()))
		}
	case SubDuration:
		put(n, "time", strNode("duration"))
		if target.Resolution != ResNanosecond {
			put(n, "resolution", strNode(target.Resolution.String()))
		}
	case SubBits:
		n.Style = 0
		bits := sequence()
		for _, b := range target.Bits {
			bn := mapping()
			bn.Style = yaml.FlowStyle
			put(bn, "name", strNode(b.Name))
			put(bn, "offset", intNode(int64(b.Offset)))
			put(bn, "size", intNode(int64(b.Size)))
			bits.Content = append(bits.Content, bn)
		}
		put(n, "bits", bits)
	}

	if len(f.Options) > 0 {
		put(n, "options", optionsNode(f.Options))
	}
	return n
}

// typeString renders a field's type in source form.
func typeString(f *Field) string {
	if f.TypeName != "" {
		return f.TypeName
	}
	switch f.Type {
	case TypeBytes:
		return "byte" + strconv.Itoa(f.Size)
	case TypeMessage:
		return f.Msg.Name
	case TypeUnion:
		return f.Union.Name
	case TypeArray:
		return typeString(f.Array) + "[" + strconv.Itoa(f.MaxCount) + "]"
	case TypePointer:
		if f.Sub == SubByteString && f.Ptr.Type == TypeInt8 {
			return "string"
		}
		return "*" + typeString(f.Ptr)
	default:
		if f.Sub == SubEnum && f.Enum != nil {
			return f.Enum.Name
		}
		return f.Type.String()
	}
}

func enumsNode(enums []*Enum) *yaml.Node {
	n := mapping()
	for _, e := range enums {
		en := mapping()
		put(en, "type", strNode(e.Type.String()))
		values := mapping()
		values.Style = yaml.FlowStyle
		for _, v := range e.Values {
			put(values, v.Name, intNode(v.Value))
		}
		put(en, "values", values)
		if len(e.Options) > 0 {
			put(en, "options", optionsNode(e.Options))
		}
		put(n, e.Name, en)
	}
	return n
}

func unionsNode(unions []*Union) *yaml.Node {
	n := mapping()
	for _, u := range unions {
		variants := sequence()
		for _, f := range u.Fields {
			variants.Content = append(variants.Content, fieldNode(f))
		}
		put(n, u.Name, variants)
	}
	return n
}

func optionsNode(opts Options) *yaml.Node {
	n := mapping()
	n.Style = yaml.FlowStyle
	for _, o := range opts {
		if o.Value != nil {
			put(n, o.Name, strNode(*o.Value))
		} else {
			put(n, o.Name, nullNode())
		}
	}
	return n
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func sequence() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

func put(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, strNode(key), value)
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func intNode(v int64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v, 10)}
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}
