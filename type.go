package dwat

import (
	"debug/dwarf"
	"fmt"

	"github.com/go-delve/delve/pkg/dwarf/godwarf"
)

// Kind discriminates the closed set of DWARF entry kinds understood by
// this package. Struct through Restrict describe types; Member,
// Parameter and Variable describe declarations carrying a type.
type Kind uint8

const (
	KindStruct Kind = iota
	KindUnion
	KindEnum
	KindBase
	KindPointer
	KindArray
	KindSubroutine
	KindTypedef
	KindConst
	KindVolatile
	KindRestrict
	KindMember
	KindParameter
	KindVariable
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindBase:
		return "base"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindSubroutine:
		return "subroutine"
	case KindTypedef:
		return "typedef"
	case KindConst:
		return "const"
	case KindVolatile:
		return "volatile"
	case KindRestrict:
		return "restrict"
	case KindMember:
		return "member"
	case KindParameter:
		return "parameter"
	case KindVariable:
		return "variable"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// kindOf maps a DWARF tag onto a Kind. ok is false for tags outside the
// supported set (namespaces, subprograms, lexical blocks, ...).
func kindOf(tag dwarf.Tag) (Kind, bool) {
	switch tag {
	case dwarf.TagStructType, dwarf.TagClassType:
		return KindStruct, true
	case dwarf.TagUnionType:
		return KindUnion, true
	case dwarf.TagEnumerationType:
		return KindEnum, true
	case dwarf.TagBaseType:
		return KindBase, true
	case dwarf.TagPointerType:
		return KindPointer, true
	case dwarf.TagArrayType:
		return KindArray, true
	case dwarf.TagSubroutineType:
		return KindSubroutine, true
	case dwarf.TagTypedef:
		return KindTypedef, true
	case dwarf.TagConstType:
		return KindConst, true
	case dwarf.TagVolatileType:
		return KindVolatile, true
	case dwarf.TagRestrictType:
		return KindRestrict, true
	case dwarf.TagMember:
		return KindMember, true
	case dwarf.TagFormalParameter:
		return KindParameter, true
	case dwarf.TagVariable:
		return KindVariable, true
	}
	return 0, false
}

// Handle is a cheap, copyable reference to one entry: the owning
// context, the entry's global offset and the kind the caller expects it
// to resolve to. Handles stay valid for the lifetime of the context and
// may be shared across goroutines.
type Handle struct {
	dw   *Dwarf
	off  dwarf.Offset
	kind Kind
}

// Offset returns the entry offset the handle refers to.
func (h Handle) Offset() dwarf.Offset {
	return h.off
}

// Kind returns the kind the handle expects its entry to have.
func (h Handle) Kind() Kind {
	return h.kind
}

// HandleAt constructs a handle from a known entry offset and an
// expected kind. The offset is not checked until the handle is resolved.
func (d *Dwarf) HandleAt(off dwarf.Offset, kind Kind) Handle {
	return Handle{dw: d, off: off, kind: kind}
}

// Type is the resolved form of a handle: a tagged variant over the
// closed kind set. Consumers switch exhaustively on Kind.
type Type struct {
	Kind Kind

	// Name is the entry's DW_AT_name, empty for anonymous types.
	Name string

	dw   *Dwarf
	node *godwarf.Tree
}

// Handle returns a handle referring back to this type's entry.
func (t Type) Handle() Handle {
	return Handle{dw: t.dw, off: t.node.Offset, kind: t.Kind}
}

func (d *Dwarf) typeAt(node *godwarf.Tree, kind Kind) Type {
	name, _ := node.Val(dwarf.AttrName).(string)
	return Type{Kind: kind, Name: name, dw: d, node: node}
}

// Resolve resolves a handle into its type variant. It fails with
// ErrUnresolvedOffset when the offset has no entry, ErrUnhandledTag for
// entries outside the supported kind set, and ErrKindMismatch when the
// entry's tag disagrees with the handle's expected kind.
func (d *Dwarf) Resolve(h Handle) (Type, error) {
	node, ok := d.entries[h.off]
	if !ok {
		return Type{}, fmt.Errorf("resolving %#x: %w", h.off, ErrUnresolvedOffset)
	}
	kind, ok := kindOf(node.Tag)
	if !ok {
		return Type{}, fmt.Errorf("resolving %#x (tag %v): %w", h.off, node.Tag, ErrUnhandledTag)
	}
	if kind != h.kind {
		return Type{}, fmt.Errorf("resolving %#x: expected %v, entry is %v: %w",
			h.off, h.kind, kind, ErrKindMismatch)
	}
	return d.typeAt(node, kind), nil
}

// ResolveAny resolves an entry offset without a kind expectation. It is
// used when following generic type references, e.g. a pointer's pointee.
func (d *Dwarf) ResolveAny(off dwarf.Offset) (Type, error) {
	node, ok := d.entries[off]
	if !ok {
		return Type{}, fmt.Errorf("resolving %#x: %w", off, ErrUnresolvedOffset)
	}
	kind, ok := kindOf(node.Tag)
	if !ok {
		return Type{}, fmt.Errorf("resolving %#x (tag %v): %w", off, node.Tag, ErrUnhandledTag)
	}
	return d.typeAt(node, kind), nil
}

// Inner follows the entry's DW_AT_type reference: the pointee of a
// pointer, the element type of an array, the underlying type of a
// typedef or qualifier, the return type of a subroutine, or the declared
// type of a member, parameter or variable.
//
// ok is false when the attribute is absent. That is a legal terminal
// state, not a failure: a pointer without a pointee is a void pointer
// and a subroutine without the attribute returns void.
func (t Type) Inner() (inner Type, ok bool, err error) {
	val := t.node.Val(dwarf.AttrType)
	if val == nil {
		return Type{}, false, nil
	}
	off, isOff := val.(dwarf.Offset)
	if !isOff {
		return Type{}, false, fmt.Errorf("entry %#x: type attribute is not a reference: %w",
			t.node.Offset, ErrMissingAttribute)
	}
	inner, err = t.dw.ResolveAny(off)
	if err != nil {
		return Type{}, false, err
	}
	return inner, true, nil
}

// Members returns the member declarations of a struct or union in
// declaration order. Non-aggregate types have no members.
func (t Type) Members() []Type {
	if t.Kind != KindStruct && t.Kind != KindUnion {
		return nil
	}
	var members []Type
	for _, child := range t.node.Children {
		if child.Tag != dwarf.TagMember {
			continue
		}
		members = append(members, t.dw.typeAt(child, KindMember))
	}
	return members
}

// Params returns the formal parameters of a subroutine type in
// declaration order.
func (t Type) Params() []Type {
	if t.Kind != KindSubroutine {
		return nil
	}
	var params []Type
	for _, child := range t.node.Children {
		if child.Tag != dwarf.TagFormalParameter {
			continue
		}
		params = append(params, t.dw.typeAt(child, KindParameter))
	}
	return params
}

// Enumerator is one named constant of an enumeration type.
type Enumerator struct {
	Name  string
	Value int64
}

// Enumerators returns the named constants of an enum in declaration
// order.
func (t Type) Enumerators() []Enumerator {
	if t.Kind != KindEnum {
		return nil
	}
	var enumers []Enumerator
	for _, child := range t.node.Children {
		if child.Tag != dwarf.TagEnumerator {
			continue
		}
		name, _ := child.Val(dwarf.AttrName).(string)
		var value int64
		switch v := child.Val(dwarf.AttrConstValue).(type) {
		case int64:
			value = v
		case uint64:
			value = int64(v)
		}
		enumers = append(enumers, Enumerator{Name: name, Value: value})
	}
	return enumers
}
