package schema

// Union is a named tagged union. The discriminator field (TypePtr) is an
// integer stored immediately before the variant payload; its numeric value
// is the zero-based index into Fields. All variants share the same starting
// byte after the discriminator.
type Union struct {
	Name string

	// TypePtr is the discriminator field, always at offset 0.
	TypePtr *Field

	// Fields are the variants in declaration order.
	Fields []*Field

	// UnionSize is the payload size in bytes, the maximum variant size.
	// Populated by the fix pass. The on-wire size of a union field is
	// TypePtr.Size + UnionSize.
	UnionSize int

	Options Options

	fixed bool
}

// Variant returns the variant at the discriminator value.
func (u *Union) Variant(index int64) (*Field, bool) {
	if index < 0 || index >= int64(len(u.Fields)) {
		return nil, false
	}
	return u.Fields[index], true
}

// VariantByName returns the named variant and its discriminator value.
func (u *Union) VariantByName(name string) (*Field, int64, bool) {
	for i, f := range u.Fields {
		if f.Name == name {
			return f, int64(i), true
		}
	}
	return nil, 0, false
}
