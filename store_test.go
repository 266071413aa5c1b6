package dwat

import (
	"debug/dwarf"

	"github.com/go-delve/delve/pkg/dwarf/godwarf"
)

// Test helpers for building synthetic entry stores without a binary.

func tnode(off dwarf.Offset, tag dwarf.Tag, fields []dwarf.Field, children ...*godwarf.Tree) *godwarf.Tree {
	return &godwarf.Tree{
		Entry:    &dwarf.Entry{Offset: off, Tag: tag, Children: len(children) > 0, Field: fields},
		Tag:      tag,
		Offset:   off,
		Children: children,
	}
}

func cu(off dwarf.Offset, children ...*godwarf.Tree) *godwarf.Tree {
	return tnode(off, dwarf.TagCompileUnit, attrs(aName("test.c")), children...)
}

func attrs(fields ...dwarf.Field) []dwarf.Field {
	return fields
}

func aName(name string) dwarf.Field {
	return dwarf.Field{Attr: dwarf.AttrName, Val: name, Class: dwarf.ClassString}
}

func aType(off dwarf.Offset) dwarf.Field {
	return dwarf.Field{Attr: dwarf.AttrType, Val: off, Class: dwarf.ClassReference}
}

func aByteSize(n int64) dwarf.Field {
	return dwarf.Field{Attr: dwarf.AttrByteSize, Val: n, Class: dwarf.ClassConstant}
}

func aMemberLoc(n int64) dwarf.Field {
	return dwarf.Field{Attr: dwarf.AttrDataMemberLoc, Val: n, Class: dwarf.ClassConstant}
}

func aBitSize(n int64) dwarf.Field {
	return dwarf.Field{Attr: dwarf.AttrBitSize, Val: n, Class: dwarf.ClassConstant}
}

func aBitOffset(n int64) dwarf.Field {
	return dwarf.Field{Attr: dwarf.AttrBitOffset, Val: n, Class: dwarf.ClassConstant}
}

func aDataBitOffset(n int64) dwarf.Field {
	return dwarf.Field{Attr: dwarf.AttrDataBitOffset, Val: n, Class: dwarf.ClassConstant}
}

func aUpperBound(n int64) dwarf.Field {
	return dwarf.Field{Attr: dwarf.AttrUpperBound, Val: n, Class: dwarf.ClassConstant}
}

func aCount(n int64) dwarf.Field {
	return dwarf.Field{Attr: dwarf.AttrCount, Val: n, Class: dwarf.ClassConstant}
}

func aConstValue(n int64) dwarf.Field {
	return dwarf.Field{Attr: dwarf.AttrConstValue, Val: n, Class: dwarf.ClassConstant}
}

func aAlignment(n int64) dwarf.Field {
	return dwarf.Field{Attr: dwarf.AttrAlignment, Val: n, Class: dwarf.ClassConstant}
}

func aDeclaration() dwarf.Field {
	return dwarf.Field{Attr: dwarf.AttrDeclaration, Val: true, Class: dwarf.ClassFlag}
}

// testContext assembles a Dwarf context directly from unit trees,
// bypassing ELF loading.
func testContext(units ...*godwarf.Tree) *Dwarf {
	d := &Dwarf{
		entries: make(map[dwarf.Offset]*godwarf.Tree),
		ptrSize: 8,
	}
	for _, unit := range units {
		d.units = append(d.units, unit)
		d.register(unit)
	}
	d.index = buildIndex(d)
	return d
}
