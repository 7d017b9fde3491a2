package schema

// copier deep-copies a schema tree, rewriting every intra-schema
// reference to the corresponding new entity. Memoization handles shared
// references and pointer cycles.
type copier struct {
	enums  map[*Enum]*Enum
	unions map[*Union]*Union
	msgs   map[*Message]*Message
	fields map[*Field]*Field
}

func newCopier() *copier {
	return &copier{
		enums:  make(map[*Enum]*Enum),
		unions: make(map[*Union]*Union),
		msgs:   make(map[*Message]*Message),
		fields: make(map[*Field]*Field),
	}
}

// Copy produces a deep copy with equal semantic content. User data is not
// duplicated: the slots in the copy are nil. The copy starts at reference
// count 1.
func (s *Schema) Copy() *Schema {
	c := newCopier()
	n := New()
	n.Options = cloneOptions(s.Options)
	for _, e := range s.Enums {
		n.Enums = append(n.Enums, c.enum(e))
	}
	for _, u := range s.Unions {
		n.Unions = append(n.Unions, c.union(u))
	}
	for _, m := range s.Messages {
		n.Messages = append(n.Messages, c.message(m))
	}
	for _, a := range s.Aliases {
		n.Aliases = append(n.Aliases, c.field(a))
	}
	n.Imports = append([]Import(nil), s.Imports...)
	n.fixed = s.fixed
	return n
}

func (c *copier) enum(e *Enum) *Enum {
	if e == nil {
		return nil
	}
	if n, ok := c.enums[e]; ok {
		return n
	}
	n := &Enum{
		Name:    e.Name,
		Type:    e.Type,
		Size:    e.Size,
		Values:  append([]EnumValue(nil), e.Values...),
		Options: cloneOptions(e.Options),
		fixed:   e.fixed,
	}
	c.enums[e] = n
	return n
}

func (c *copier) union(u *Union) *Union {
	if u == nil {
		return nil
	}
	if n, ok := c.unions[u]; ok {
		return n
	}
	n := &Union{
		Name:      u.Name,
		UnionSize: u.UnionSize,
		Options:   cloneOptions(u.Options),
		fixed:     u.fixed,
	}
	c.unions[u] = n
	n.TypePtr = c.field(u.TypePtr)
	for _, f := range u.Fields {
		n.Fields = append(n.Fields, c.field(f))
	}
	return n
}

func (c *copier) message(m *Message) *Message {
	if m == nil {
		return nil
	}
	if n, ok := c.msgs[m]; ok {
		return n
	}
	n := &Message{
		Name:    m.Name,
		ID:      m.ID,
		Size:    m.Size,
		Options: cloneOptions(m.Options),
		fixed:   m.fixed,
	}
	c.msgs[m] = n
	for _, e := range m.Enums {
		n.Enums = append(n.Enums, c.enum(e))
	}
	for _, u := range m.Unions {
		n.Unions = append(n.Unions, c.union(u))
	}
	for _, f := range m.Fields {
		n.Fields = append(n.Fields, c.field(f))
	}
	return n
}

func (c *copier) field(f *Field) *Field {
	if f == nil {
		return nil
	}
	if n, ok := c.fields[f]; ok {
		return n
	}
	n := &Field{
		Name:           f.Name,
		Options:        cloneOptions(f.Options),
		Offset:         f.Offset,
		Size:           f.Size,
		Type:           f.Type,
		Sub:            f.Sub,
		TypeName:       f.TypeName,
		PtrVersion:     f.PtrVersion,
		MaxCount:       f.MaxCount,
		FixedPrecision: f.FixedPrecision,
		Resolution:     f.Resolution,
		Bits:           append([]BitField(nil), f.Bits...),
		fixed:          f.fixed,
	}
	c.fields[f] = n
	n.Msg = c.message(f.Msg)
	n.Ptr = c.field(f.Ptr)
	n.Array = c.field(f.Array)
	n.CountField = c.field(f.CountField)
	n.Enum = c.enum(f.Enum)
	n.Union = c.union(f.Union)
	return n
}

func cloneOptions(o Options) Options {
	if o == nil {
		return nil
	}
	n := make(Options, len(o))
	for i, opt := range o {
		n[i] = Option{Name: opt.Name}
		if opt.Value != nil {
			v := *opt.Value
			n[i].Value = &v
		}
	}
	return n
}
