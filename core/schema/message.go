package schema

// Message is a named, fixed-size body composed of fields. Variable data is
// referenced through pointer fields into a trailing region after the body.
type Message struct {
	Name string

	// ID is the numeric message id. Zero means the message is not
	// addressable by id, though LookupID(0) still returns it.
	ID int32

	// Size is the fixed body size in bytes, populated by the fix pass.
	Size int

	Fields []*Field

	// Local catalogs. Names here shadow schema-level names within this
	// message.
	Enums  []*Enum
	Unions []*Union

	Options Options

	// User is an opaque slot for caller-attached artifacts. UserFree,
	// when set, is called on release; the slot is never copied.
	User     any
	UserFree func(any)

	fixed  bool
	fixing bool
}

// Field returns the named field.
func (m *Message) Field(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// localEnum returns the named enum from the message's local catalog.
func (m *Message) localEnum(name string) *Enum {
	for _, e := range m.Enums {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// localUnion returns the named union from the message's local catalog.
func (m *Message) localUnion(name string) *Union {
	for _, u := range m.Unions {
		if u.Name == name {
			return u
		}
	}
	return nil
}
