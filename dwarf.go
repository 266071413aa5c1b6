package dwat

import (
	"bytes"
	"compress/zlib"
	"debug/dwarf"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/go-delve/delve/pkg/dwarf/godwarf"
)

// Dwarf owns the debugging information of one loaded binary: the parsed
// DWARF data, the entry store and the named-type index. It is immutable
// after Load returns and safe for concurrent reads.
type Dwarf struct {
	elfFile *elf.File
	data    *dwarf.Data

	// entry store: every DIE of every compilation unit, keyed by its
	// global offset, plus the unit roots in on-disk order
	units   []*godwarf.Tree
	entries map[dwarf.Offset]*godwarf.Tree

	ptrSize int64
	index   *Index
}

// sections is a copy of Go's debug/elf (f *File) DWARF(), forked to
// skip relocation handling prior to .debug_info parsing and to pick up
// the DWARF4 .debug_types and DWARF5 sections.
func sections(f *elf.File) (*dwarf.Data, error) {
	dwarfSuffix := func(s *elf.Section) string {
		switch {
		case strings.HasPrefix(s.Name, ".debug_"):
			return s.Name[7:]
		case strings.HasPrefix(s.Name, ".zdebug_"):
			return s.Name[8:]
		default:
			return ""
		}
	}

	// sectionData gets the data for s and checks its size.
	sectionData := func(s *elf.Section) ([]byte, error) {
		b, err := s.Data()
		if err != nil && uint64(len(b)) < s.Size {
			return nil, err
		}

		if len(b) >= 12 && string(b[:4]) == "ZLIB" {
			dlen := binary.BigEndian.Uint64(b[4:12])
			dbuf := make([]byte, dlen)
			r, err := zlib.NewReader(bytes.NewBuffer(b[12:]))
			if err != nil {
				return nil, err
			}
			if _, err := io.ReadFull(r, dbuf); err != nil {
				return nil, err
			}
			if err := r.Close(); err != nil {
				return nil, err
			}
			b = dbuf
		}

		// NOTE: removed relocations from original code here

		return b, nil
	}

	// There are many DWARF sections, but these are the ones
	// the debug/dwarf package started with.
	var dat = map[string][]byte{"abbrev": nil, "info": nil, "str": nil, "line": nil, "ranges": nil}
	for _, s := range f.Sections {
		suffix := dwarfSuffix(s)
		if suffix == "" {
			continue
		}
		if _, ok := dat[suffix]; !ok {
			continue
		}
		b, err := sectionData(s)
		if err != nil {
			return nil, err
		}
		dat[suffix] = b
	}

	d, err := dwarf.New(dat["abbrev"], nil, nil, dat["info"], dat["line"], nil, dat["ranges"], dat["str"])
	if err != nil {
		return nil, err
	}

	// Look for DWARF4 .debug_types sections and DWARF5 sections.
	for i, s := range f.Sections {
		suffix := dwarfSuffix(s)
		if suffix == "" {
			continue
		}
		if _, ok := dat[suffix]; ok {
			// Already handled.
			continue
		}

		b, err := sectionData(s)
		if err != nil {
			return nil, err
		}

		if suffix == "types" {
			if err := d.AddTypes(fmt.Sprintf("types-%d", i), b); err != nil {
				return nil, err
			}
		} else {
			if err := d.AddSection(".debug_"+suffix, b); err != nil {
				return nil, err
			}
		}
	}

	return d, nil
}

// Load opens an ELF binary, parses its DWARF sections and builds the
// entry store and named-type index.
func Load(path string) (*Dwarf, error) {
	elfFile, err := elf.Open(path)
	if err != nil {
		return nil, err
	}
	d, err := newDwarf(elfFile)
	if err != nil {
		elfFile.Close()
		return nil, err
	}
	return d, nil
}

// NewFromELF builds a Dwarf context from an already-opened ELF file.
// The caller keeps ownership of f.
func NewFromELF(f *elf.File) (*Dwarf, error) {
	d, err := newDwarf(f)
	if err != nil {
		return nil, err
	}
	d.elfFile = nil // not ours to close
	return d, nil
}

func newDwarf(f *elf.File) (*Dwarf, error) {
	data, err := sections(f)
	if err != nil {
		return nil, err
	}

	ptrSize := int64(4)
	if f.Class == elf.ELFCLASS64 {
		ptrSize = 8
	}

	d := &Dwarf{
		elfFile: f,
		data:    data,
		entries: make(map[dwarf.Offset]*godwarf.Tree),
		ptrSize: ptrSize,
	}

	// Materialize each compilation unit as an entry tree. Compilation
	// units are visited in on-disk order so index order is reproducible.
	reader := data.Reader()
	for {
		entry, err := reader.Next()
		if err != nil {
			return nil, fmt.Errorf("walking compilation units: %w", err)
		}
		if entry == nil {
			break
		}
		if entry.Tag != dwarf.TagCompileUnit {
			continue
		}
		tree, err := godwarf.LoadTree(entry.Offset, data, 0)
		if err != nil {
			return nil, fmt.Errorf("loading unit at %#x: %w", entry.Offset, err)
		}
		d.units = append(d.units, tree)
		d.register(tree)
		reader.SkipChildren()
	}

	d.index = buildIndex(d)
	return d, nil
}

// register adds a subtree to the entry store in pre-order.
func (d *Dwarf) register(node *godwarf.Tree) {
	d.entries[node.Offset] = node
	for _, child := range node.Children {
		d.register(child)
	}
}

// Close releases the underlying ELF file, if this context owns one.
func (d *Dwarf) Close() error {
	if d.elfFile != nil {
		return d.elfFile.Close()
	}
	return nil
}

// PointerSize reports the binary's native pointer width in bytes.
func (d *Dwarf) PointerSize() int64 {
	return d.ptrSize
}

// Unit is one compilation unit of the loaded binary.
type Unit struct {
	dw   *Dwarf
	node *godwarf.Tree
}

// Units returns the binary's compilation units in on-disk order.
func (d *Dwarf) Units() []Unit {
	units := make([]Unit, len(d.units))
	for i, node := range d.units {
		units[i] = Unit{dw: d, node: node}
	}
	return units
}

// Name returns the unit's source file name, or "" if unrecorded.
func (u Unit) Name() string {
	name, _ := u.node.Val(dwarf.AttrName).(string)
	return name
}

// Producer returns the DW_AT_producer string identifying the compiler
// that emitted the unit.
func (u Unit) Producer() (string, error) {
	producer, ok := u.node.Val(dwarf.AttrProducer).(string)
	if !ok {
		return "", fmt.Errorf("unit %q has no producer: %w", u.Name(), ErrMissingAttribute)
	}
	return producer, nil
}

// Language returns the unit's DW_AT_language code.
func (u Unit) Language() (Language, error) {
	lang, ok := u.node.Val(dwarf.AttrLanguage).(int64)
	if !ok {
		return 0, fmt.Errorf("unit %q has no language: %w", u.Name(), ErrMissingAttribute)
	}
	return Language(lang), nil
}

// Language is a DW_AT_language source language code.
type Language int64

// Source language codes from the DWARF specification, limited to the
// ones that show up in C-family binaries.
const (
	LangC89   Language = 0x01
	LangC     Language = 0x02
	LangCpp   Language = 0x04
	LangC99   Language = 0x0c
	LangGo    Language = 0x16
	LangCpp03 Language = 0x19
	LangCpp11 Language = 0x1a
	LangRust  Language = 0x1c
	LangC11   Language = 0x1d
	LangCpp14 Language = 0x21
)

func (l Language) String() string {
	switch l {
	case LangC89:
		return "C89"
	case LangC:
		return "C"
	case LangCpp:
		return "C++"
	case LangC99:
		return "C99"
	case LangGo:
		return "Go"
	case LangCpp03:
		return "C++03"
	case LangCpp11:
		return "C++11"
	case LangRust:
		return "Rust"
	case LangC11:
		return "C11"
	case LangCpp14:
		return "C++14"
	}
	return fmt.Sprintf("language(%#x)", int64(l))
}
