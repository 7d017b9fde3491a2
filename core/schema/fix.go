package schema

// fixer carries the state of one fix pass over a schema.
type fixer struct {
	s *Schema

	// deferred holds pointer element fields whose message size is not
	// yet known because the message is higher up the fix stack.
	// Recursion through a pointer is legal; the element size is filled
	// in once the pass completes.
	deferred []*Field
}

// Fix resolves type references, computes enum/union/message/field sizes,
// assigns field offsets and validates invariants. The first violation is
// returned as an *Error naming the offending entity. Fix is idempotent:
// fixing an already-fixed schema succeeds without changes.
func (s *Schema) Fix() error {
	if s.fixed {
		return nil
	}

	seen := make(map[string]struct{}, len(s.Messages))
	for _, m := range s.Messages {
		if _, dup := seen[m.Name]; dup {
			return errorf(CodeParse, m.Name, "duplicate message name")
		}
		seen[m.Name] = struct{}{}
	}

	fx := &fixer{s: s}
	for _, e := range s.Enums {
		if err := fx.fixEnum(e); err != nil {
			return err
		}
	}
	for _, u := range s.Unions {
		if err := fx.fixUnion(nil, u); err != nil {
			return err
		}
	}
	for _, m := range s.Messages {
		if err := fx.fixMessage(m); err != nil {
			return err
		}
	}
	// Aliases are fixed after messages so they may resolve to
	// already-fixed types.
	for _, a := range s.Aliases {
		if err := fx.fixField(nil, a); err != nil {
			return err
		}
	}
	fx.settle()
	s.fixed = true
	return nil
}

// Fix re-runs the fix pass on the message subtree. Named references
// resolve against the message's local catalog, then the schema's.
func (m *Message) Fix(s *Schema) error {
	fx := &fixer{s: s}
	if err := fx.fixMessage(m); err != nil {
		return err
	}
	fx.settle()
	return nil
}

// Fix re-runs the fix pass on a single field. The enclosing message may
// be nil for schema-level fields such as aliases.
func (f *Field) Fix(s *Schema, m *Message) error {
	fx := &fixer{s: s}
	if err := fx.fixField(m, f); err != nil {
		return err
	}
	fx.settle()
	return nil
}

// settle fills in element sizes deferred across pointer recursion.
func (fx *fixer) settle() {
	for _, f := range fx.deferred {
		f.Size = f.Msg.Size
		f.fixed = true
	}
	fx.deferred = nil
}

func (fx *fixer) fixEnum(e *Enum) error {
	if e.fixed {
		return nil
	}
	switch e.Type {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64, TypeUInt8, TypeUInt16, TypeUInt32:
	default:
		return errorf(CodeBadSubType, e.Name, "enum underlying type %s is not a supported integer", e.Type)
	}
	e.Size = e.Type.Width()
	for _, v := range e.Values {
		if !valueFits(v.Value, e.Type) {
			return errorf(CodeOutOfRange, e.Name, "value %s = %d does not fit %s", v.Name, v.Value, e.Type)
		}
	}
	e.fixed = true
	return nil
}

func (fx *fixer) fixUnion(m *Message, u *Union) error {
	if u.fixed {
		return nil
	}
	if u.TypePtr == nil {
		return errorf(CodeParse, u.Name, "union has no discriminator field")
	}
	if err := fx.fixField(m, u.TypePtr); err != nil {
		return err
	}
	if !u.TypePtr.Type.IsInteger() {
		return errorf(CodeBadSubType, u.Name, "union discriminator must be an integer, got %s", u.TypePtr.Type)
	}
	u.TypePtr.Offset = 0

	size := 0
	for _, f := range u.Fields {
		if err := fx.fixField(m, f); err != nil {
			return err
		}
		// Variants share the byte immediately after the discriminator.
		f.Offset = u.TypePtr.Size
		if f.Size > size {
			size = f.Size
		}
	}
	u.UnionSize = size
	u.fixed = true
	return nil
}

func (fx *fixer) fixMessage(m *Message) error {
	if m.fixed {
		return nil
	}
	if m.fixing {
		return errorf(CodeCycle, m.Name, "message contains itself by value")
	}
	m.fixing = true
	defer func() { m.fixing = false }()

	for _, e := range m.Enums {
		if err := fx.fixEnum(e); err != nil {
			return err
		}
	}
	for _, u := range m.Unions {
		if err := fx.fixUnion(m, u); err != nil {
			return err
		}
	}

	offset := 0
	for _, f := range m.Fields {
		if err := fx.fixField(m, f); err != nil {
			return err
		}
		f.Offset = offset
		offset += f.Size
	}
	m.Size = offset
	m.fixed = true
	return nil
}

func (fx *fixer) fixField(m *Message, f *Field) error {
	if f.fixed {
		return nil
	}
	if f.TypeName != "" {
		if err := fx.resolve(m, f); err != nil {
			return err
		}
	}

	switch {
	case f.Type.IsInteger():
		f.Size = f.Type.Width()
		if err := fx.fixIntegerSub(m, f); err != nil {
			return err
		}

	case f.Type == TypeDouble:
		f.Size = 8
		switch f.Sub {
		case SubNone, SubTimePoint, SubDuration:
		default:
			return errorf(CodeBadSubType, fieldEntity(m, f), "%s annotation on double", f.Sub)
		}

	case f.Type == TypeDecimal128:
		f.Size = 16
		if f.Sub != SubNone {
			return errorf(CodeBadSubType, fieldEntity(m, f), "%s annotation on decimal128", f.Sub)
		}

	case f.Type == TypeBytes:
		if f.Size <= 0 {
			return errorf(CodeParse, fieldEntity(m, f), "bytes field has no size")
		}
		switch f.Sub {
		case SubNone, SubByteString:
		case SubBits:
			if err := validateBits(m, f); err != nil {
				return err
			}
		default:
			return errorf(CodeBadSubType, fieldEntity(m, f), "%s annotation on bytes", f.Sub)
		}

	case f.Type == TypeMessage:
		if f.Msg == nil {
			return errorf(CodeUnresolved, fieldEntity(m, f), "message field has no target")
		}
		if err := fx.fixMessage(f.Msg); err != nil {
			return err
		}
		f.Size = f.Msg.Size

	case f.Type == TypeArray:
		if f.CountField == nil || f.Array == nil {
			return errorf(CodeParse, fieldEntity(m, f), "array field has no element or count")
		}
		if err := fx.fixField(m, f.CountField); err != nil {
			return err
		}
		if !f.CountField.Type.IsInteger() {
			return errorf(CodeBadSubType, fieldEntity(m, f), "array count must be an integer, got %s", f.CountField.Type)
		}
		f.CountField.Offset = 0
		if err := fx.fixField(m, f.Array); err != nil {
			return err
		}
		f.Array.Offset = f.CountField.Size
		if f.MaxCount < 0 || !valueFits(int64(f.MaxCount), f.CountField.Type) {
			return errorf(CodeBadCount, fieldEntity(m, f), "max count %d does not fit %s", f.MaxCount, f.CountField.Type)
		}
		f.Size = f.CountField.Size + f.MaxCount*f.Array.Size

	case f.Type == TypePointer:
		if f.Ptr == nil {
			return errorf(CodeParse, fieldEntity(m, f), "pointer field has no element")
		}
		if f.PtrVersion.HeaderSize() == 0 {
			return errorf(CodeParse, fieldEntity(m, f), "unknown offset pointer version %d", int(f.PtrVersion))
		}
		if err := fx.fixPointerElem(m, f); err != nil {
			return err
		}
		f.Size = f.PtrVersion.HeaderSize()

	case f.Type == TypeUnion:
		if f.Union == nil {
			return errorf(CodeUnresolved, fieldEntity(m, f), "union field has no target")
		}
		if err := fx.fixUnion(m, f.Union); err != nil {
			return err
		}
		f.Size = f.Union.TypePtr.Size + f.Union.UnionSize

	default:
		return errorf(CodeParse, fieldEntity(m, f), "unknown field type %d", int(f.Type))
	}

	f.fixed = true
	return nil
}

// fixPointerElem fixes the element descriptor of a pointer field.
// Pointer recursion into a message currently being fixed is legal: the
// element size is deferred until the pass settles.
func (fx *fixer) fixPointerElem(m *Message, f *Field) error {
	elem := f.Ptr
	if elem.fixed {
		return nil
	}
	if elem.TypeName != "" {
		if err := fx.resolve(m, elem); err != nil {
			return err
		}
	}
	if elem.Type == TypeMessage && elem.Msg != nil && elem.Msg.fixing {
		fx.deferred = append(fx.deferred, elem)
		return nil
	}
	return fx.fixField(m, elem)
}

func (fx *fixer) fixIntegerSub(m *Message, f *Field) error {
	switch f.Sub {
	case SubNone, SubTimePoint, SubDuration:
		return nil
	case SubEnum:
		if f.Enum == nil {
			return errorf(CodeUnresolved, fieldEntity(m, f), "enum annotation has no target")
		}
		if err := fx.fixEnum(f.Enum); err != nil {
			return err
		}
		f.Type = f.Enum.Type
		f.Size = f.Enum.Size
		return nil
	case SubFixedPoint:
		if f.FixedPrecision > maxDecimalDigits(f.Type) {
			return errorf(CodeOutOfRange, fieldEntity(m, f), "precision %d exceeds %s decimal range", f.FixedPrecision, f.Type)
		}
		return nil
	case SubByteString:
		// The element of a string pointer is an int8 tagged byte-string.
		if f.Type == TypeInt8 {
			return nil
		}
		return errorf(CodeBadSubType, fieldEntity(m, f), "%s annotation on %s", f.Sub, f.Type)
	default:
		return errorf(CodeBadSubType, fieldEntity(m, f), "%s annotation on %s", f.Sub, f.Type)
	}
}

// resolve binds a named type reference to an enum, union, message or
// alias. Local names shadow schema-level names within their message.
func (fx *fixer) resolve(m *Message, f *Field) error {
	name := f.TypeName

	var e *Enum
	if m != nil {
		e = m.localEnum(name)
	}
	if e == nil && fx.s != nil {
		e = fx.s.enum(name)
	}
	if e != nil {
		if err := fx.fixEnum(e); err != nil {
			return err
		}
		f.Enum = e
		f.Sub = SubEnum
		f.Type = e.Type
		f.TypeName = ""
		return nil
	}

	var u *Union
	if m != nil {
		u = m.localUnion(name)
	}
	if u == nil && fx.s != nil {
		u = fx.s.union(name)
	}
	if u != nil {
		f.Union = u
		f.Type = TypeUnion
		f.TypeName = ""
		return nil
	}

	if fx.s != nil {
		if msg := fx.s.LookupName(name); msg != nil {
			f.Msg = msg
			f.Type = TypeMessage
			f.TypeName = ""
			return nil
		}
		if alias := fx.s.alias(name); alias != nil && alias != f {
			if err := fx.fixField(nil, alias); err != nil {
				return err
			}
			fx.applyAlias(f, alias)
			return nil
		}
	}

	return errorf(CodeUnresolved, fieldEntity(m, f), "unknown type %q", name)
}

// applyAlias copies the type shape of a fixed alias into f. Catalog
// references (messages, enums, unions) stay shared; nested field
// descriptors are cloned so each use owns its own tree.
func (fx *fixer) applyAlias(f, alias *Field) {
	c := newCopier()
	for _, e := range fx.s.Enums {
		c.enums[e] = e
	}
	for _, u := range fx.s.Unions {
		c.unions[u] = u
	}
	for _, m := range fx.s.Messages {
		c.msgs[m] = m
	}
	n := c.field(alias)

	f.Type = n.Type
	f.Sub = n.Sub
	f.Size = n.Size
	f.Msg = n.Msg
	f.Ptr = n.Ptr
	f.PtrVersion = n.PtrVersion
	f.Array = n.Array
	f.CountField = n.CountField
	f.MaxCount = n.MaxCount
	f.Enum = n.Enum
	f.Union = n.Union
	f.FixedPrecision = n.FixedPrecision
	f.Resolution = n.Resolution
	f.Bits = n.Bits
	f.TypeName = ""

	fx.redefer(f.Ptr)
	fx.redefer(f.Array)
	fx.redefer(f.CountField)
}

// redefer re-registers cloned element fields whose message size is still
// pending, so settle() fills the clones too.
func (fx *fixer) redefer(f *Field) {
	if f == nil {
		return
	}
	if f.Type == TypeMessage && f.Msg != nil && !f.fixed {
		fx.deferred = append(fx.deferred, f)
	}
	fx.redefer(f.Ptr)
	fx.redefer(f.Array)
	fx.redefer(f.CountField)
}

func validateBits(m *Message, f *Field) error {
	total := uint(8 * f.Size)
	for i, b := range f.Bits {
		if b.Size == 0 || b.Offset+b.Size > total {
			return errorf(CodeBadBits, fieldEntity(m, f), "bit field %s [%d,%d) out of range of %d bits", b.Name, b.Offset, b.Offset+b.Size, total)
		}
		for _, prev := range f.Bits[:i] {
			if b.Offset < prev.Offset+prev.Size && prev.Offset < b.Offset+b.Size {
				return errorf(CodeBadBits, fieldEntity(m, f), "bit fields %s and %s overlap", prev.Name, b.Name)
			}
		}
	}
	return nil
}

// valueFits reports whether v is representable in the integer type t.
func valueFits(v int64, t FieldType) bool {
	w := uint(8 * t.Width())
	if t.Signed() {
		if w == 64 {
			return true
		}
		return v >= -(1<<(w-1)) && v <= (1<<(w-1))-1
	}
	if v < 0 {
		return false
	}
	if w == 64 {
		return true
	}
	return v <= (1<<w)-1
}

// maxDecimalDigits returns the number of full decimal digits the integer
// type can hold, bounding fixed-point precision.
func maxDecimalDigits(t FieldType) uint {
	switch t.Width() {
	case 1:
		return 2
	case 2:
		return 4
	case 4:
		return 9
	case 8:
		if t.Signed() {
			return 18
		}
		return 19
	default:
		return 0
	}
}

// fieldEntity qualifies a field name with its message for error reporting.
func fieldEntity(m *Message, f *Field) string {
	if m != nil {
		return m.Name + "." + f.Name
	}
	return f.Name
}
