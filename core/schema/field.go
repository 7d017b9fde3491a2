package schema

// BitField is one named bit range inside a bytes field with the bits
// annotation. Offset and Size are in bits, LSB-first within each byte.
type BitField struct {
	Name   string
	Offset uint
	Size   uint
}

// Field is a named slot of a type at an offset inside a message.
//
// The payload pointers below are keyed by Type and Sub: Msg for message
// fields, Ptr/PtrVersion for pointer fields, Array/CountField/MaxCount for
// array fields, Union for union fields, Enum for the enum annotation,
// FixedPrecision / Resolution / Bits for the remaining annotations.
type Field struct {
	Name    string
	Options Options

	// Offset in bytes from the message start and Size in bytes occupied
	// in the message body. Both are populated by the fix pass.
	Offset int
	Size   int

	Type FieldType
	Sub  SubType

	// TypeName is an unresolved reference to a named type from the
	// source form. The fix pass resolves it against the enclosing
	// message's catalog, then the schema's, and clears it. While
	// TypeName is set, Type is meaningless.
	TypeName string

	Msg        *Message
	Ptr        *Field
	PtrVersion OffsetPtrVersion
	Array      *Field
	CountField *Field
	MaxCount   int
	Enum       *Enum
	Union      *Union

	FixedPrecision uint
	Resolution     TimeResolution
	Bits           []BitField

	// User is an opaque slot for caller-attached artifacts. UserFree,
	// when set, is called on release; the slot is never copied.
	User     any
	UserFree func(any)

	fixed bool
}

// IsVariable reports whether the field references variable-length data.
// Only pointer fields do; arrays and unions are fixed-width in the body.
func (f *Field) IsVariable() bool {
	return f.Type == TypePointer
}

// Bit returns the named bit field of a bits-annotated field.
func (f *Field) Bit(name string) (BitField, bool) {
	for _, b := range f.Bits {
		if b.Name == name {
			return b, true
		}
	}
	return BitField{}, false
}
