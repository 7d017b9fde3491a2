package schema

import "sync/atomic"

// Import records one imported schema source.
type Import struct {
	URL      string
	Filename string
}

// Schema is the root container of types. It owns every entity reachable
// from its lists and is shared between endpoints through an atomic
// reference count.
//
// A schema is mutated only by the fix pass; after a successful Fix it is
// logically immutable except for the user-data slots, and may be read from
// multiple goroutines without coordination.
type Schema struct {
	Options  Options
	Messages []*Message
	Enums    []*Enum
	Aliases  []*Field
	Unions   []*Union
	Imports  []Import

	// User is an opaque slot for caller-attached artifacts. UserFree,
	// when set, is called on release; the slot is never copied.
	User     any
	UserFree func(any)

	refs  atomic.Int32
	fixed bool
}

// New creates an empty schema with reference count 1.
func New() *Schema {
	s := &Schema{}
	s.refs.Store(1)
	return s
}

// Ref increments the reference count and returns the same schema.
func (s *Schema) Ref() *Schema {
	s.refs.Add(1)
	return s
}

// Unref decrements the reference count. On reaching zero the ownership
// tree is walked and every user-data disposer is invoked.
func (s *Schema) Unref() {
	if s.refs.Add(-1) == 0 {
		s.release()
	}
}

// LookupID returns the first message with the given id.
func (s *Schema) LookupID(id int32) *Message {
	for _, m := range s.Messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// LookupName returns the first message with the given name.
func (s *Schema) LookupName(name string) *Message {
	for _, m := range s.Messages {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// enum returns the named schema-level enum.
func (s *Schema) enum(name string) *Enum {
	for _, e := range s.Enums {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// union returns the named schema-level union.
func (s *Schema) union(name string) *Union {
	for _, u := range s.Unions {
		if u.Name == name {
			return u
		}
	}
	return nil
}

// alias returns the named alias field.
func (s *Schema) alias(name string) *Field {
	for _, a := range s.Aliases {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// release runs user-data disposers across the ownership tree. Nested
// fields (pointer elements, array elements and counts) are owned by their
// parent field; union fields are owned by the union; messages referenced
// by fields are owned by the schema's message list and released there.
func (s *Schema) release() {
	for _, m := range s.Messages {
		for _, f := range m.Fields {
			releaseField(f)
		}
		for _, u := range m.Unions {
			releaseUnion(u)
		}
		if m.UserFree != nil && m.User != nil {
			m.UserFree(m.User)
		}
		m.User = nil
	}
	for _, u := range s.Unions {
		releaseUnion(u)
	}
	for _, a := range s.Aliases {
		releaseField(a)
	}
	if s.UserFree != nil && s.User != nil {
		s.UserFree(s.User)
	}
	s.User = nil
}

func releaseField(f *Field) {
	if f == nil {
		return
	}
	releaseField(f.Ptr)
	releaseField(f.Array)
	releaseField(f.CountField)
	if f.UserFree != nil && f.User != nil {
		f.UserFree(f.User)
	}
	f.User = nil
}

func releaseUnion(u *Union) {
	releaseField(u.TypePtr)
	for _, f := range u.Fields {
		releaseField(f)
	}
}
