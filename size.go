package dwat

import (
	"debug/dwarf"
	"fmt"

	"github.com/go-delve/delve/pkg/dwarf/godwarf"
)

// maxChainDepth caps typedef/qualifier chain following. Legitimate
// chains are a handful of hops deep; anything past this bound is a
// cyclic or malformed chain.
const maxChainDepth = 32

func entryByteSize(node *godwarf.Tree) (int64, bool) {
	size, ok := node.Val(dwarf.AttrByteSize).(int64)
	return size, ok
}

// ByteSize computes the storage size of the type behind h in bytes.
// known is false for types with no resolvable size: subroutine types,
// incomplete arrays and void-like chains. That is a legal state, not an
// error; err is set only when resolution itself fails.
func (d *Dwarf) ByteSize(h Handle) (size int64, known bool, err error) {
	t, err := d.Resolve(h)
	if err != nil {
		return 0, false, err
	}
	return d.byteSize(t, 0)
}

// ByteSize is the Type-level form of Dwarf.ByteSize.
func (t Type) ByteSize() (size int64, known bool, err error) {
	return t.dw.byteSize(t, 0)
}

func (d *Dwarf) byteSize(t Type, depth int) (int64, bool, error) {
	if depth > maxChainDepth {
		return 0, false, fmt.Errorf("sizing %#x: %w", t.node.Offset, ErrDepthExceeded)
	}

	switch t.Kind {
	case KindStruct, KindBase:
		if size, ok := entryByteSize(t.node); ok {
			return size, true, nil
		}
		// structs with a trailing incomplete array may legally carry no
		// size; base types without one are simply unsized
		return 0, false, nil

	case KindUnion:
		if size, ok := entryByteSize(t.node); ok {
			return size, true, nil
		}
		// no explicit size, the union is as big as its widest member
		var widest int64
		found := false
		for _, member := range t.Members() {
			inner, ok, err := member.Inner()
			if err != nil {
				return 0, false, err
			}
			if !ok {
				continue
			}
			size, known, err := d.byteSize(inner, depth+1)
			if err != nil {
				return 0, false, err
			}
			if known {
				found = true
				if size > widest {
					widest = size
				}
			}
		}
		return widest, found, nil

	case KindEnum:
		if size, ok := entryByteSize(t.node); ok {
			return size, true, nil
		}
		inner, ok, err := t.Inner()
		if err != nil || !ok {
			return 0, false, err
		}
		return d.byteSize(inner, depth+1)

	case KindArray:
		if size, ok := entryByteSize(t.node); ok {
			return size, true, nil
		}
		count := int64(1)
		dims := arrayDims(t)
		if len(dims) == 0 {
			return 0, false, nil
		}
		for _, dim := range dims {
			if !dim.known {
				// flexible/incomplete array, size is unresolvable
				return 0, false, nil
			}
			count *= dim.count
		}
		inner, ok, err := t.Inner()
		if err != nil || !ok {
			return 0, false, err
		}
		elem, known, err := d.byteSize(inner, depth+1)
		if err != nil || !known {
			return 0, false, err
		}
		return elem * count, true, nil

	case KindPointer:
		if size, ok := entryByteSize(t.node); ok {
			return size, true, nil
		}
		return d.ptrSize, true, nil

	case KindTypedef, KindConst, KindVolatile, KindRestrict:
		// transparent modifiers: no inherent size, follow the chain
		if size, ok := entryByteSize(t.node); ok {
			return size, true, nil
		}
		inner, ok, err := t.Inner()
		if err != nil || !ok {
			return 0, false, err
		}
		return d.byteSize(inner, depth+1)

	case KindSubroutine:
		// function types have no storage size, only function pointers do
		return 0, false, nil

	case KindMember, KindParameter, KindVariable:
		inner, ok, err := t.Inner()
		if err != nil || !ok {
			return 0, false, err
		}
		return d.byteSize(inner, depth+1)
	}
	return 0, false, fmt.Errorf("sizing %#x: kind %v: %w", t.node.Offset, t.Kind, ErrUnhandledTag)
}

type arrayDim struct {
	count int64
	known bool
}

// arrayDims reads the subrange children of an array type, one per
// dimension. A dimension's element count comes from DW_AT_count, or
// DW_AT_upper_bound plus one; a subrange with neither is an unbounded
// (flexible) dimension.
func arrayDims(t Type) []arrayDim {
	var dims []arrayDim
	for _, child := range t.node.Children {
		if child.Tag != dwarf.TagSubrangeType {
			continue
		}
		if count, ok := child.Val(dwarf.AttrCount).(int64); ok {
			dims = append(dims, arrayDim{count: count, known: true})
			continue
		}
		if upper, ok := child.Val(dwarf.AttrUpperBound).(int64); ok {
			dims = append(dims, arrayDim{count: upper + 1, known: true})
			continue
		}
		dims = append(dims, arrayDim{})
	}
	return dims
}

// MemberLayout describes where a struct or union member lives within
// its aggregate.
type MemberLayout struct {
	// ByteOffset is the member's offset from the start of the
	// aggregate. When the offset attribute is absent entirely (anonymous
	// unions, malformed input) it is 0 with OffsetUnknown set, so
	// callers needing exactness can tell the two apart.
	ByteOffset    int64
	OffsetUnknown bool

	// ByteSize is the size of the member's storage. SizeUnknown is set
	// when the member's type has no resolvable size, e.g. a flexible
	// array member.
	ByteSize    int64
	SizeUnknown bool

	// Bit field position. BitOffset counts from the least significant
	// bit of the storage unit regardless of which DWARF encoding was
	// present on disk.
	Bitfield  bool
	BitOffset uint8
	BitSize   uint8
}

// MemberLayout computes the layout of one member. h must be a member
// handle.
func (d *Dwarf) MemberLayout(h Handle) (MemberLayout, error) {
	t, err := d.Resolve(h)
	if err != nil {
		return MemberLayout{}, err
	}
	if t.Kind != KindMember {
		return MemberLayout{}, fmt.Errorf("layout of %#x: %v is not a member: %w",
			h.off, t.Kind, ErrKindMismatch)
	}
	return d.memberLayout(t)
}

func (d *Dwarf) memberLayout(t Type) (MemberLayout, error) {
	var lay MemberLayout

	if offset, ok := t.node.Val(dwarf.AttrDataMemberLoc).(int64); ok {
		lay.ByteOffset = offset
	} else {
		lay.OffsetUnknown = true
	}

	inner, ok, err := t.Inner()
	if err != nil {
		return MemberLayout{}, err
	}
	if !ok {
		lay.SizeUnknown = true
	} else {
		size, known, err := d.byteSize(inner, 0)
		if err != nil {
			return MemberLayout{}, err
		}
		lay.ByteSize = size
		lay.SizeUnknown = !known
	}

	bitSize, ok := t.node.Val(dwarf.AttrBitSize).(int64)
	if !ok {
		return lay, nil
	}
	lay.Bitfield = true
	lay.BitSize = uint8(bitSize)

	if dataBitOffset, ok := t.node.Val(dwarf.AttrDataBitOffset).(int64); ok {
		// DWARF5 encoding: offset from the least significant bit of the
		// storage unit, usable as-is
		lay.BitOffset = uint8(dataBitOffset)
		return lay, nil
	}
	if legacy, ok := t.node.Val(dwarf.AttrBitOffset).(int64); ok {
		// DWARF4 encoding: offset from the most significant bit, convert
		// using the storage unit's size
		storage, ok := entryByteSize(t.node)
		if !ok {
			storage = lay.ByteSize
		}
		lay.BitOffset = uint8(storage*8 - legacy - bitSize)
	}
	return lay, nil
}
