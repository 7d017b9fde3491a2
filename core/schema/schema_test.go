package schema

import (
	"testing"
)

func tickSchema(t *testing.T) *Schema {
	t.Helper()
	s := testSchema(&Message{Name: "Tick", ID: 10, Fields: []*Field{
		scalarField("price", TypeInt32),
		scalarField("qty", TypeUInt16),
	}})
	if err := s.Fix(); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}
	return s
}

func TestLookup(t *testing.T) {
	s := tickSchema(t)

	if m := s.LookupName("Tick"); m == nil || m.Name != "Tick" {
		t.Error("LookupName(Tick) did not find the message")
	}
	if m := s.LookupName("Nope"); m != nil {
		t.Error("LookupName(Nope) found a message, want nil")
	}
	if m := s.LookupID(10); m == nil || m.ID != 10 {
		t.Error("LookupID(10) did not find the message")
	}
	if m := s.LookupID(11); m != nil {
		t.Error("LookupID(11) found a message, want nil")
	}
}

func TestLookupIDZero(t *testing.T) {
	// id 0 means "not addressable", but id-based lookup still returns
	// the first message carrying it.
	s := testSchema(&Message{Name: "Unassigned"})
	if m := s.LookupID(0); m == nil || m.Name != "Unassigned" {
		t.Error("LookupID(0) should return the first id-0 message")
	}
}

func TestRefUnref(t *testing.T) {
	s := tickSchema(t)

	released := false
	s.User = "payload"
	s.UserFree = func(any) { released = true }

	if got := s.Ref(); got != s {
		t.Error("Ref() should return the same handle")
	}
	s.Unref()
	if released {
		t.Error("disposer ran while references remain")
	}
	if m := s.LookupName("Tick"); m == nil {
		t.Error("schema unusable after balanced Ref/Unref")
	}

	s.Unref()
	if !released {
		t.Error("disposer did not run when the last reference dropped")
	}
}

func TestUnrefRunsEntityDisposers(t *testing.T) {
	s := tickSchema(t)
	m := s.LookupName("Tick")
	f := m.Field("price")

	var freed []string
	m.User = "m"
	m.UserFree = func(u any) { freed = append(freed, "message:"+u.(string)) }
	f.User = "f"
	f.UserFree = func(u any) { freed = append(freed, "field:"+u.(string)) }

	s.Unref()

	if len(freed) != 2 {
		t.Fatalf("disposer calls = %v, want field and message", freed)
	}
	if freed[0] != "field:f" || freed[1] != "message:m" {
		t.Errorf("disposer calls = %v", freed)
	}
}

func TestCopy(t *testing.T) {
	s := tickSchema(t)
	s.User = "attached"
	s.LookupName("Tick").User = "attached"

	c := s.Copy()

	if c.User != nil {
		t.Error("copy carries schema user data, want nil")
	}
	cm := c.LookupName("Tick")
	if cm == nil {
		t.Fatal("copy lost message Tick")
	}
	if cm.User != nil {
		t.Error("copy carries message user data, want nil")
	}
	if cm == s.LookupName("Tick") {
		t.Error("copy shares message with the original")
	}
	if cm.Size != 6 {
		t.Errorf("copied Tick.Size = %d, want 6", cm.Size)
	}
}

func TestCopyDumpEqual(t *testing.T) {
	s := tickSchema(t)
	c := s.Copy()

	a, err := s.Dump("yaml")
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	b, err := c.Dump("yaml")
	if err != nil {
		t.Fatalf("copy Dump() error = %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("copy dump differs:\n%s\nvs\n%s", a, b)
	}
}

func TestCopyRewritesReferences(t *testing.T) {
	inner := &Message{Name: "Inner", Fields: []*Field{scalarField("a", TypeInt8)}}
	outer := &Message{Name: "Outer", Fields: []*Field{{Name: "body", TypeName: "Inner"}}}
	s := testSchema(inner, outer)
	if err := s.Fix(); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}

	c := s.Copy()
	cb := c.LookupName("Outer").Field("body")
	if cb.Msg == inner {
		t.Error("copied field still references the original message")
	}
	if cb.Msg != c.LookupName("Inner") {
		t.Error("copied field does not reference the copied message")
	}
}

func TestCopyPointerCycle(t *testing.T) {
	node := &Message{Name: "Node", Fields: []*Field{
		{Name: "next", Type: TypePointer, Ptr: &Field{Name: "next", TypeName: "Node"}},
	}}
	s := testSchema(node)
	if err := s.Fix(); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}

	c := s.Copy()
	cn := c.LookupName("Node")
	if cn.Field("next").Ptr.Msg != cn {
		t.Error("copied self-reference does not point at the copied message")
	}
}

func TestOptionLookup(t *testing.T) {
	v := "1"
	opts := Options{
		{Name: "version", Value: &v},
		{Name: "flag"},
	}

	if !opts.Has("version") || !opts.Has("flag") {
		t.Error("Has() should find both options")
	}
	if opts.Has("missing") {
		t.Error("Has(missing) = true")
	}

	got, ok := opts.Get("version")
	if !ok || got != "1" {
		t.Errorf("Get(version) = %q, %v", got, ok)
	}

	// A valueless option is present but has no value.
	if _, ok := opts.Get("flag"); ok {
		t.Error("Get(flag) reported a value for a valueless option")
	}
	if _, ok := opts.Get("missing"); ok {
		t.Error("Get(missing) reported a value")
	}
}

func TestOptionFirstMatchWins(t *testing.T) {
	a, b := "first", "second"
	opts := Options{
		{Name: "k", Value: &a},
		{Name: "k", Value: &b},
	}
	if got, _ := opts.Get("k"); got != "first" {
		t.Errorf("Get(k) = %q, want first", got)
	}
	if opts.Map()["k"] != "first" {
		t.Errorf("Map()[k] = %q, want first", opts.Map()["k"])
	}
}

func TestEnumLookupHelpers(t *testing.T) {
	e := &Enum{Name: "Side", Type: TypeUInt8, Values: []EnumValue{
		{Name: "Buy", Value: 0},
		{Name: "Sell", Value: 1},
		{Name: "SellAlias", Value: 1},
	}}

	if v, ok := e.Value("Sell"); !ok || v != 1 {
		t.Errorf("Value(Sell) = %d, %v", v, ok)
	}
	if _, ok := e.Value("Hold"); ok {
		t.Error("Value(Hold) found a value")
	}
	// Duplicate numeric values resolve to the first declared name.
	if n, _ := e.ValueName(1); n != "Sell" {
		t.Errorf("ValueName(1) = %q, want Sell", n)
	}
}

func TestUnionVariantHelpers(t *testing.T) {
	u := &Union{
		Name:    "V",
		TypePtr: scalarField("_type", TypeUInt8),
		Fields: []*Field{
			scalarField("a", TypeInt32),
			scalarField("b", TypeDouble),
		},
	}

	if f, ok := u.Variant(1); !ok || f.Name != "b" {
		t.Errorf("Variant(1) = %v, %v", f, ok)
	}
	if _, ok := u.Variant(2); ok {
		t.Error("Variant(2) should be out of range")
	}
	if _, idx, ok := u.VariantByName("b"); !ok || idx != 1 {
		t.Errorf("VariantByName(b) index = %d, %v", idx, ok)
	}
}
