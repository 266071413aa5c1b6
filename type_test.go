package dwat

import (
	"debug/dwarf"
	"errors"
	"testing"
)

func TestResolveKindMismatch(t *testing.T) {
	base := tnode(1, dwarf.TagBaseType, attrs(aName("int"), aByteSize(4)))
	d := testContext(cu(0x1000, base))

	_, err := d.Resolve(d.HandleAt(1, KindStruct))
	if !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("err = %v, want ErrKindMismatch", err)
	}
}

func TestResolveUnknownOffset(t *testing.T) {
	d := testContext(cu(0x1000))

	_, err := d.Resolve(d.HandleAt(0xdead, KindStruct))
	if !errors.Is(err, ErrUnresolvedOffset) {
		t.Fatalf("Resolve err = %v, want ErrUnresolvedOffset", err)
	}
	_, err = d.ResolveAny(0xdead)
	if !errors.Is(err, ErrUnresolvedOffset) {
		t.Fatalf("ResolveAny err = %v, want ErrUnresolvedOffset", err)
	}
}

func TestResolveUnhandledTag(t *testing.T) {
	fn := tnode(1, dwarf.TagSubprogram, attrs(aName("main")))
	d := testContext(cu(0x1000, fn))

	_, err := d.ResolveAny(1)
	if !errors.Is(err, ErrUnhandledTag) {
		t.Fatalf("err = %v, want ErrUnhandledTag", err)
	}
}

func TestVoidPointerInner(t *testing.T) {
	ptr := tnode(1, dwarf.TagPointerType, attrs(aByteSize(8)))
	d := testContext(cu(0x1000, ptr))

	vt, err := d.Resolve(d.HandleAt(1, KindPointer))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	_, ok, err := vt.Inner()
	if err != nil {
		t.Fatalf("Inner: %v", err)
	}
	if ok {
		t.Fatal("Inner reported a pointee for a void pointer")
	}
}

func TestMembersOrder(t *testing.T) {
	base := tnode(1, dwarf.TagBaseType, attrs(aName("int"), aByteSize(4)))
	st := tnode(2, dwarf.TagStructType, attrs(aName("s"), aByteSize(12)),
		tnode(3, dwarf.TagMember, attrs(aName("a"), aType(1), aMemberLoc(0))),
		tnode(4, dwarf.TagMember, attrs(aName("b"), aType(1), aMemberLoc(4))),
		tnode(5, dwarf.TagMember, attrs(aName("c"), aType(1), aMemberLoc(8))),
	)
	d := testContext(cu(0x1000, base, st))

	vt, err := d.Resolve(d.HandleAt(2, KindStruct))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	members := vt.Members()
	want := []string{"a", "b", "c"}
	if len(members) != len(want) {
		t.Fatalf("got %d members, want %d", len(members), len(want))
	}
	for i, m := range members {
		if m.Name != want[i] {
			t.Fatalf("member[%d].Name = %q, want %q", i, m.Name, want[i])
		}
		if m.Kind != KindMember {
			t.Fatalf("member[%d].Kind = %v, want member", i, m.Kind)
		}
	}
}

func TestEnumerators(t *testing.T) {
	en := tnode(1, dwarf.TagEnumerationType, attrs(aName("level"), aByteSize(4)),
		tnode(2, dwarf.TagEnumerator, attrs(aName("LOW"), aConstValue(-1))),
		tnode(3, dwarf.TagEnumerator, attrs(aName("MID"), aConstValue(0))),
		tnode(4, dwarf.TagEnumerator, []dwarf.Field{
			aName("HIGH"),
			{Attr: dwarf.AttrConstValue, Val: uint64(2), Class: dwarf.ClassConstant},
		}),
	)
	d := testContext(cu(0x1000, en))

	vt, err := d.Resolve(d.HandleAt(1, KindEnum))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got := vt.Enumerators()
	want := []Enumerator{{"LOW", -1}, {"MID", 0}, {"HIGH", 2}}
	if len(got) != len(want) {
		t.Fatalf("got %d enumerators, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("enumerator[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestHandleRoundTrip(t *testing.T) {
	st := tnode(7, dwarf.TagStructType, attrs(aName("s"), aByteSize(4)))
	d := testContext(cu(0x1000, st))

	h := d.HandleAt(7, KindStruct)
	vt, err := d.Resolve(h)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	back := vt.Handle()
	if back.Offset() != h.Offset() || back.Kind() != h.Kind() {
		t.Fatalf("round trip handle = (%#x, %v), want (%#x, %v)",
			back.Offset(), back.Kind(), h.Offset(), h.Kind())
	}
}

func TestSubroutineParams(t *testing.T) {
	base := tnode(1, dwarf.TagBaseType, attrs(aName("int"), aByteSize(4)))
	sub := tnode(2, dwarf.TagSubroutineType, attrs(aType(1)),
		tnode(3, dwarf.TagFormalParameter, attrs(aType(1))),
		tnode(4, dwarf.TagFormalParameter, attrs(aType(1))),
	)
	d := testContext(cu(0x1000, base, sub))

	vt, err := d.Resolve(d.HandleAt(2, KindSubroutine))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := len(vt.Params()); got != 2 {
		t.Fatalf("got %d params, want 2", got)
	}
}
