// Package dwat makes type information from DWARF (v4/v5) debugging
// metadata accessible without parsing raw debug sections by hand.
//
// A Dwarf context is loaded once from an ELF binary and is immutable
// afterwards. Types are referenced through cheap, copyable Handles that
// resolve lazily into tagged variants; struct, union and enum layouts
// (byte sizes, member offsets, bit-field positions) can be computed from
// any handle, and any type can be rendered as a C-style declaration in
// the manner of pahole:
//
//	d, err := dwat.Load("vmlinux")
//	if err != nil { ... }
//	defer d.Close()
//
//	h, ok := d.Lookup(dwat.KindStruct, "file_system_type")
//	if ok {
//		text, err := d.Format(h, dwat.Verbose)
//		...
//	}
//
// Handles may be resolved concurrently from multiple goroutines; the
// context performs no mutation after Load returns.
package dwat
