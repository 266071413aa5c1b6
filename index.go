package dwat

import (
	"debug/dwarf"

	mapset "github.com/deckarep/golang-set"

	"github.com/go-delve/delve/pkg/dwarf/godwarf"
)

// nameableKinds is the set of kinds recorded by the index. Members and
// parameters are always reached through their parent aggregate, so they
// are not indexed on their own.
var nameableKinds = mapset.NewSetFromSlice([]interface{}{
	KindStruct,
	KindUnion,
	KindEnum,
	KindBase,
	KindTypedef,
	KindSubroutine,
	KindVariable,
})

type indexKey struct {
	kind Kind
	name string
}

// NamedHandle pairs a discovered name with a handle to its entry.
type NamedHandle struct {
	Name   string
	Handle Handle
}

// Index maps (kind, name) pairs to entry offsets. It is built once at
// load time by a pre-order walk of every compilation unit and is
// read-only afterwards. Duplicate names across units are legal and kept
// in discovery order.
type Index struct {
	byName map[indexKey][]Handle
	byKind map[Kind][]NamedHandle
}

func buildIndex(d *Dwarf) *Index {
	idx := &Index{
		byName: make(map[indexKey][]Handle),
		byKind: make(map[Kind][]NamedHandle),
	}
	for _, unit := range d.units {
		idx.walk(d, unit)
	}
	return idx
}

func (idx *Index) walk(d *Dwarf, node *godwarf.Tree) {
	idx.visit(d, node)
	for _, child := range node.Children {
		idx.walk(d, child)
	}
}

func (idx *Index) visit(d *Dwarf, node *godwarf.Tree) {
	kind, ok := kindOf(node.Tag)
	if !ok || !nameableKinds.Contains(kind) {
		return
	}
	// forward declarations carry no layout, skip them
	if node.Val(dwarf.AttrDeclaration) != nil {
		return
	}
	name, ok := node.Val(dwarf.AttrName).(string)
	if !ok || name == "" {
		return
	}
	h := Handle{dw: d, off: node.Offset, kind: kind}
	key := indexKey{kind: kind, name: name}
	idx.byName[key] = append(idx.byName[key], h)
	idx.byKind[kind] = append(idx.byKind[kind], NamedHandle{Name: name, Handle: h})
}

// Lookup returns the first entry of the given kind discovered under the
// given name. The first match is stable across runs on the same binary.
func (d *Dwarf) Lookup(kind Kind, name string) (Handle, bool) {
	matches := d.index.byName[indexKey{kind: kind, name: name}]
	if len(matches) == 0 {
		return Handle{}, false
	}
	return matches[0], true
}

// LookupAll returns every entry of the given kind recorded under the
// given name, in discovery order, for disambiguation by the caller.
func (d *Dwarf) LookupAll(kind Kind, name string) []Handle {
	matches := d.index.byName[indexKey{kind: kind, name: name}]
	out := make([]Handle, len(matches))
	copy(out, matches)
	return out
}

// AllOf enumerates every named entry of a kind in discovery order.
func (d *Dwarf) AllOf(kind Kind) []NamedHandle {
	named := d.index.byKind[kind]
	out := make([]NamedHandle, len(named))
	copy(out, named)
	return out
}
