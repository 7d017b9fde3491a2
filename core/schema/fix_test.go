package schema

import (
	"errors"
	"testing"
)

func scalarField(name string, t FieldType) *Field {
	return &Field{Name: name, Type: t}
}

func testSchema(msgs ...*Message) *Schema {
	s := New()
	s.Messages = append(s.Messages, msgs...)
	return s
}

func fixErrCode(t *testing.T, s *Schema, want ErrorCode) *Error {
	t.Helper()
	err := s.Fix()
	if err == nil {
		t.Fatalf("Fix() error = nil, want %s", want)
	}
	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("Fix() error = %v, want *Error", err)
	}
	if serr.Code != want {
		t.Fatalf("Fix() code = %s, want %s (%v)", serr.Code, want, err)
	}
	return serr
}

func TestFixSimpleMessage(t *testing.T) {
	m := &Message{Name: "Tick", Fields: []*Field{
		scalarField("price", TypeInt32),
		scalarField("qty", TypeUInt16),
	}}
	s := testSchema(m)

	if err := s.Fix(); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}

	if got := m.Field("price").Offset; got != 0 {
		t.Errorf("price.Offset = %d, want 0", got)
	}
	if got := m.Field("qty").Offset; got != 4 {
		t.Errorf("qty.Offset = %d, want 4", got)
	}
	if m.Size != 6 {
		t.Errorf("Tick.Size = %d, want 6", m.Size)
	}
}

func TestFixEmptyMessage(t *testing.T) {
	m := &Message{Name: "Heartbeat"}
	s := testSchema(m)

	if err := s.Fix(); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}
	if m.Size != 0 {
		t.Errorf("Heartbeat.Size = %d, want 0", m.Size)
	}
}

func TestFixScalarWidths(t *testing.T) {
	tests := []struct {
		typ  FieldType
		size int
	}{
		{TypeInt8, 1},
		{TypeInt16, 2},
		{TypeInt32, 4},
		{TypeInt64, 8},
		{TypeUInt8, 1},
		{TypeUInt16, 2},
		{TypeUInt32, 4},
		{TypeUInt64, 8},
		{TypeDouble, 8},
		{TypeDecimal128, 16},
	}

	for _, tt := range tests {
		f := scalarField("f", tt.typ)
		s := testSchema(&Message{Name: "M", Fields: []*Field{f}})
		if err := s.Fix(); err != nil {
			t.Fatalf("%s: Fix() error = %v", tt.typ, err)
		}
		if f.Size != tt.size {
			t.Errorf("%s: Size = %d, want %d", tt.typ, f.Size, tt.size)
		}
	}
}

func TestFixMessageField(t *testing.T) {
	inner := &Message{Name: "Inner", Fields: []*Field{scalarField("a", TypeInt64)}}
	outer := &Message{Name: "Outer", Fields: []*Field{
		scalarField("head", TypeUInt8),
		{Name: "body", TypeName: "Inner"},
	}}
	s := testSchema(inner, outer)

	if err := s.Fix(); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}

	body := outer.Field("body")
	if body.Type != TypeMessage || body.Msg != inner {
		t.Fatalf("body not resolved to Inner: type=%s", body.Type)
	}
	if body.Size != 8 || body.Offset != 1 {
		t.Errorf("body size/offset = %d/%d, want 8/1", body.Size, body.Offset)
	}
	if outer.Size != 9 {
		t.Errorf("Outer.Size = %d, want 9", outer.Size)
	}
}

func TestFixArray(t *testing.T) {
	f := &Field{
		Name:       "values",
		Type:       TypeArray,
		MaxCount:   8,
		CountField: scalarField("values_count", TypeInt8),
		Array:      scalarField("values", TypeInt32),
	}
	s := testSchema(&Message{Name: "M", Fields: []*Field{f}})

	if err := s.Fix(); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}

	if f.Size != 1+8*4 {
		t.Errorf("array size = %d, want 33", f.Size)
	}
	if f.CountField.Offset != 0 {
		t.Errorf("count offset = %d, want 0", f.CountField.Offset)
	}
	if f.Array.Offset != 1 {
		t.Errorf("element offset = %d, want 1", f.Array.Offset)
	}
}

func TestFixArrayCountTooNarrow(t *testing.T) {
	f := &Field{
		Name:       "values",
		Type:       TypeArray,
		MaxCount:   300,
		CountField: scalarField("values_count", TypeInt8),
		Array:      scalarField("values", TypeUInt8),
	}
	s := testSchema(&Message{Name: "M", Fields: []*Field{f}})

	fixErrCode(t, s, CodeBadCount)
}

func TestFixPointerHeaderSizes(t *testing.T) {
	tests := []struct {
		version OffsetPtrVersion
		size    int
	}{
		{PtrDefault, 8},
		{PtrLegacyLong, 8},
		{PtrLegacyShort, 4},
	}

	for _, tt := range tests {
		f := &Field{
			Name:       "data",
			Type:       TypePointer,
			PtrVersion: tt.version,
			Ptr:        scalarField("data", TypeUInt8),
		}
		s := testSchema(&Message{Name: "M", Fields: []*Field{f}})
		if err := s.Fix(); err != nil {
			t.Fatalf("%s: Fix() error = %v", tt.version, err)
		}
		if f.Size != tt.size {
			t.Errorf("%s: pointer size = %d, want %d", tt.version, f.Size, tt.size)
		}
	}
}

func TestFixUnionLayout(t *testing.T) {
	u := &Union{
		Name:    "V",
		TypePtr: scalarField("_type", TypeUInt8),
		Fields: []*Field{
			scalarField("a", TypeInt32),
			{Name: "b", Type: TypeBytes, Size: 8},
		},
	}
	f := &Field{Name: "v", TypeName: "V"}
	s := testSchema(&Message{Name: "M", Fields: []*Field{f}})
	s.Unions = []*Union{u}

	if err := s.Fix(); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}

	if u.UnionSize != 8 {
		t.Errorf("UnionSize = %d, want 8", u.UnionSize)
	}
	if f.Size != 9 {
		t.Errorf("union field size = %d, want 9", f.Size)
	}
	for _, variant := range u.Fields {
		if variant.Offset != 1 {
			t.Errorf("variant %s offset = %d, want 1", variant.Name, variant.Offset)
		}
	}
}

func TestFixEnum(t *testing.T) {
	e := &Enum{Name: "E", Type: TypeUInt16, Values: []EnumValue{
		{Name: "A", Value: 0},
		{Name: "B", Value: 42000},
	}}
	s := New()
	s.Enums = []*Enum{e}
	f := &Field{Name: "e", TypeName: "E"}
	s.Messages = []*Message{{Name: "M", Fields: []*Field{f}}}

	if err := s.Fix(); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}

	if e.Size != 2 {
		t.Errorf("E.Size = %d, want 2", e.Size)
	}
	if f.Type != TypeUInt16 || f.Sub != SubEnum || f.Enum != e {
		t.Errorf("field not resolved to enum: type=%s sub=%s", f.Type, f.Sub)
	}
}

func TestFixEnumValueOverflow(t *testing.T) {
	e := &Enum{Name: "E", Type: TypeUInt8, Values: []EnumValue{{Name: "Big", Value: 300}}}
	s := New()
	s.Enums = []*Enum{e}

	fixErrCode(t, s, CodeOutOfRange)
}

func TestFixLocalEnumShadowsGlobal(t *testing.T) {
	global := &Enum{Name: "E", Type: TypeUInt32, Values: []EnumValue{{Name: "A", Value: 0}}}
	local := &Enum{Name: "E", Type: TypeUInt8, Values: []EnumValue{{Name: "A", Value: 0}}}
	f := &Field{Name: "e", TypeName: "E"}
	m := &Message{Name: "M", Enums: []*Enum{local}, Fields: []*Field{f}}
	s := testSchema(m)
	s.Enums = []*Enum{global}

	if err := s.Fix(); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}
	if f.Enum != local {
		t.Error("field resolved to global enum, want local")
	}
	if f.Size != 1 {
		t.Errorf("field size = %d, want 1 (local enum width)", f.Size)
	}
}

func TestFixUnresolvedType(t *testing.T) {
	s := testSchema(&Message{Name: "M", Fields: []*Field{{Name: "x", TypeName: "Missing"}}})
	serr := fixErrCode(t, s, CodeUnresolved)
	if serr.Entity != "M.x" {
		t.Errorf("error entity = %q, want M.x", serr.Entity)
	}
}

func TestFixContainmentCycle(t *testing.T) {
	a := &Message{Name: "A", Fields: []*Field{{Name: "b", TypeName: "B"}}}
	b := &Message{Name: "B", Fields: []*Field{{Name: "a", TypeName: "A"}}}
	s := testSchema(a, b)

	fixErrCode(t, s, CodeCycle)
}

func TestFixSelfContainment(t *testing.T) {
	a := &Message{Name: "A", Fields: []*Field{{Name: "self", TypeName: "A"}}}
	s := testSchema(a)

	fixErrCode(t, s, CodeCycle)
}

func TestFixPointerRecursionAllowed(t *testing.T) {
	// A linked list: recursion through a pointer is not a containment
	// cycle because the pointer header is fixed-size.
	node := &Message{Name: "Node", Fields: []*Field{
		scalarField("value", TypeInt64),
		{Name: "next", Type: TypePointer, Ptr: &Field{Name: "next", TypeName: "Node"}},
	}}
	s := testSchema(node)

	if err := s.Fix(); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}
	if node.Size != 16 {
		t.Errorf("Node.Size = %d, want 16", node.Size)
	}
	next := node.Field("next")
	if next.Ptr.Size != node.Size {
		t.Errorf("element size = %d, want %d (settled after fix)", next.Ptr.Size, node.Size)
	}
}

func TestFixBadSubTypes(t *testing.T) {
	tests := []struct {
		name  string
		field *Field
	}{
		{"enum annotation on double", &Field{Name: "f", Type: TypeDouble, Sub: SubEnum}},
		{"bits on integer", &Field{Name: "f", Type: TypeUInt32, Sub: SubBits, Bits: []BitField{{Name: "b", Offset: 0, Size: 1}}}},
		{"byte-string on integer", &Field{Name: "f", Type: TypeInt32, Sub: SubByteString}},
		{"fixed-point on decimal128", &Field{Name: "f", Type: TypeDecimal128, Sub: SubFixedPoint}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSchema(&Message{Name: "M", Fields: []*Field{tt.field}})
			fixErrCode(t, s, CodeBadSubType)
		})
	}
}

func TestFixBits(t *testing.T) {
	f := &Field{Name: "flags", Type: TypeBytes, Size: 2, Sub: SubBits, Bits: []BitField{
		{Name: "urgent", Offset: 0, Size: 1},
		{Name: "kind", Offset: 1, Size: 3},
		{Name: "tail", Offset: 12, Size: 4},
	}}
	s := testSchema(&Message{Name: "M", Fields: []*Field{f}})

	if err := s.Fix(); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}
	if f.Size != 2 {
		t.Errorf("flags.Size = %d, want 2", f.Size)
	}
}

func TestFixBadBits(t *testing.T) {
	tests := []struct {
		name string
		bits []BitField
	}{
		{"out of range", []BitField{{Name: "b", Offset: 14, Size: 4}}},
		{"zero width", []BitField{{Name: "b", Offset: 0, Size: 0}}},
		{"overlap", []BitField{
			{Name: "a", Offset: 0, Size: 4},
			{Name: "b", Offset: 3, Size: 2},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Field{Name: "flags", Type: TypeBytes, Size: 2, Sub: SubBits, Bits: tt.bits}
			s := testSchema(&Message{Name: "M", Fields: []*Field{f}})
			fixErrCode(t, s, CodeBadBits)
		})
	}
}

func TestFixFixedPointPrecision(t *testing.T) {
	ok := &Field{Name: "price", Type: TypeInt64, Sub: SubFixedPoint, FixedPrecision: 8}
	s := testSchema(&Message{Name: "M", Fields: []*Field{ok}})
	if err := s.Fix(); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}

	bad := &Field{Name: "price", Type: TypeInt32, Sub: SubFixedPoint, FixedPrecision: 10}
	s = testSchema(&Message{Name: "M", Fields: []*Field{bad}})
	fixErrCode(t, s, CodeOutOfRange)
}

func TestFixDuplicateMessageName(t *testing.T) {
	s := testSchema(
		&Message{Name: "M"},
		&Message{Name: "M"},
	)
	fixErrCode(t, s, CodeParse)
}

func TestFixAlias(t *testing.T) {
	alias := &Field{Name: "price", Type: TypeInt64, Sub: SubFixedPoint, FixedPrecision: 8}
	f := &Field{Name: "bid", TypeName: "price"}
	s := testSchema(&Message{Name: "M", Fields: []*Field{f}})
	s.Aliases = []*Field{alias}

	if err := s.Fix(); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}

	if f.Type != TypeInt64 || f.Sub != SubFixedPoint || f.FixedPrecision != 8 {
		t.Errorf("alias shape not applied: type=%s sub=%s precision=%d", f.Type, f.Sub, f.FixedPrecision)
	}
	if f.Name != "bid" {
		t.Errorf("field name = %q, want bid", f.Name)
	}
	if f.Size != 8 {
		t.Errorf("field size = %d, want 8", f.Size)
	}
}

func TestFixIdempotent(t *testing.T) {
	m := &Message{Name: "Tick", Fields: []*Field{
		scalarField("price", TypeInt32),
		scalarField("qty", TypeUInt16),
	}}
	s := testSchema(m)

	if err := s.Fix(); err != nil {
		t.Fatalf("first Fix() error = %v", err)
	}
	first, err := s.Dump("yaml")
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	if err := s.Fix(); err != nil {
		t.Fatalf("second Fix() error = %v", err)
	}
	second, err := s.Dump("yaml")
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("fix is not idempotent:\n%s\nvs\n%s", first, second)
	}
	if m.Size != 6 {
		t.Errorf("Tick.Size = %d after refix, want 6", m.Size)
	}
}

func TestMessageFix(t *testing.T) {
	m := &Message{Name: "Tick", Fields: []*Field{scalarField("price", TypeInt32)}}
	s := testSchema(m)

	if err := m.Fix(s); err != nil {
		t.Fatalf("Message.Fix() error = %v", err)
	}
	if m.Size != 4 {
		t.Errorf("Tick.Size = %d, want 4", m.Size)
	}
}
