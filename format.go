package dwat

import (
	"debug/dwarf"
	"fmt"
	"strings"
)

// Mode selects the formatter's output style.
type Mode int

const (
	// Compact renders plain C declarations.
	Compact Mode = iota

	// Verbose additionally annotates members with size/offset comments
	// and aggregates with a total size comment.
	Verbose
)

const indentUnit = "    "

// Format renders the type behind h as a C-style declaration. Formatting
// fails if any nested member fails to resolve; the formatter never
// silently omits a member.
func (d *Dwarf) Format(h Handle, mode Mode) (string, error) {
	t, err := d.Resolve(h)
	if err != nil {
		return "", err
	}
	verbose := mode == Verbose

	switch t.Kind {
	case KindStruct, KindUnion:
		return d.formatAggregate(t, verbose)
	case KindEnum:
		return d.formatEnumDecl(t), nil
	case KindTypedef:
		inner, ok, err := t.Inner()
		if err != nil {
			return "", err
		}
		if !ok {
			return fmt.Sprintf("typedef void %s;", t.Name), nil
		}
		decl, err := d.formatType(inner, t.Name, 0, 0, verbose, 0)
		if err != nil {
			return "", err
		}
		return "typedef " + decl + ";", nil
	case KindMember, KindParameter, KindVariable:
		inner, ok, err := t.Inner()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("formatting %#x: declaration has no type: %w",
				t.node.Offset, ErrMissingAttribute)
		}
		decl, err := d.formatType(inner, t.Name, 0, 0, verbose, 0)
		if err != nil {
			return "", err
		}
		return decl + ";", nil
	}

	// scalar, pointer, array, qualifier and subroutine types render as a
	// bare type reference
	ref, err := d.formatType(t, "", 1, 0, verbose, 0)
	if err != nil {
		return "", err
	}
	return ref + ";", nil
}

func (d *Dwarf) formatAggregate(t Type, verbose bool) (string, error) {
	keyword := "struct"
	if t.Kind == KindUnion {
		keyword = "union"
	}

	var b strings.Builder
	if t.Name != "" {
		fmt.Fprintf(&b, "%s %s {\n", keyword, t.Name)
	} else {
		b.WriteString(keyword + " {\n")
	}

	body, err := d.renderMembers(t, 0, verbose, 0)
	if err != nil {
		return "", err
	}
	b.WriteString(body)

	if verbose {
		size, known, err := t.ByteSize()
		if err != nil {
			return "", err
		}
		if known {
			fmt.Fprintf(&b, "\n%s/* total size: %d */\n", indentUnit, size)
		} else {
			fmt.Fprintf(&b, "\n%s/* total size: ? */\n", indentUnit)
		}
	}
	b.WriteString("}")

	if align, ok := t.node.Val(dwarf.AttrAlignment).(int64); ok {
		fmt.Fprintf(&b, " __attribute((__aligned__(%d)))", align)
	}
	b.WriteString(";")
	return b.String(), nil
}

func (d *Dwarf) formatEnumDecl(t Type) string {
	var b strings.Builder
	if t.Name != "" {
		fmt.Fprintf(&b, "enum %s {\n", t.Name)
	} else {
		b.WriteString("enum {\n")
	}
	for _, e := range t.Enumerators() {
		fmt.Fprintf(&b, "%s%s = %d,\n", indentUnit, e.Name, e.Value)
	}
	b.WriteString("};")
	return b.String()
}

// renderMembers renders one line (or nested block) per member of an
// aggregate, each terminated with a newline. In verbose mode the member
// comments are column-aligned to the widest declaration in this
// aggregate.
func (d *Dwarf) renderMembers(t Type, tablevel int, verbose bool, baseOffset int64) (string, error) {
	type rendered struct {
		text   string
		layout MemberLayout
		offset int64
	}

	members := t.Members()
	out := make([]rendered, 0, len(members))
	for _, m := range members {
		layout, err := d.memberLayout(m)
		if err != nil {
			return "", err
		}
		offset := baseOffset + layout.ByteOffset

		inner, ok, err := m.Inner()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("formatting member %q at %#x: no type attribute: %w",
				m.Name, m.node.Offset, ErrMissingAttribute)
		}

		decl, err := d.formatType(inner, m.Name, 0, tablevel, verbose, offset)
		if err != nil {
			return "", err
		}

		var line strings.Builder
		line.WriteString(strings.Repeat(indentUnit, tablevel+1))
		line.WriteString(decl)
		if layout.Bitfield {
			fmt.Fprintf(&line, ":%d", layout.BitSize)
		}
		line.WriteString(";")
		out = append(out, rendered{text: line.String(), layout: layout, offset: offset})
	}

	var b strings.Builder
	if !verbose {
		for _, r := range out {
			b.WriteString(r.text)
			b.WriteString("\n")
		}
		return b.String(), nil
	}

	// align comments on the widest final line of this aggregate
	widest := 0
	for _, r := range out {
		if n := lastLineLen(r.text); n > widest {
			widest = n
		}
	}
	for _, r := range out {
		b.WriteString(r.text)
		b.WriteString(strings.Repeat(" ", widest-lastLineLen(r.text)+1))
		size := "   ?"
		if !r.layout.SizeUnknown {
			size = fmt.Sprintf("%4d", r.layout.ByteSize)
		}
		fmt.Fprintf(&b, "/* sz: %s | off: %4d */\n", size, r.offset)
	}
	return b.String(), nil
}

func lastLineLen(s string) int {
	return len(s) - (strings.LastIndexByte(s, '\n') + 1)
}

// formatType renders a type reference, recursing through composite and
// modifier types. level 0 means the result is a member declaration and
// should carry memberName; deeper levels render bare type references.
// Pointer and subroutine types never inline their pointee/return type
// bodies, which bounds recursion through self-referential structures;
// only anonymous struct/union/enum bodies are inlined.
func (d *Dwarf) formatType(t Type, memberName string, level, tablevel int, verbose bool, baseOffset int64) (string, error) {
	switch t.Kind {
	case KindArray:
		var out string
		inner, ok, err := t.Inner()
		if err != nil {
			return "", err
		}
		if ok {
			out, err = d.formatType(inner, "", level+1, tablevel, verbose, baseOffset)
			if err != nil {
				return "", err
			}
		} else {
			out = "void"
		}
		if !strings.HasSuffix(out, "*") {
			out += " "
		}
		if level == 0 {
			out += memberName
		}
		dims := arrayDims(t)
		if len(dims) == 0 {
			out += "[]"
		}
		for _, dim := range dims {
			if dim.known {
				out += fmt.Sprintf("[%d]", dim.count)
			} else {
				out += "[]"
			}
		}
		return out, nil

	case KindTypedef:
		// the typedef name always wins over expanding the underlying type
		name := t.Name
		if name == "" {
			name = "unknown"
		}
		if level == 0 {
			return name + " " + memberName, nil
		}
		return name, nil

	case KindStruct, KindUnion:
		keyword := "struct"
		if t.Kind == KindUnion {
			keyword = "union"
		}
		if t.Name != "" {
			if level == 0 {
				return keyword + " " + t.Name + " " + memberName, nil
			}
			return keyword + " " + t.Name, nil
		}
		// anonymous aggregate member types are inlined as a brace block
		body, err := d.renderMembers(t, tablevel+1, verbose, baseOffset)
		if err != nil {
			return "", err
		}
		out := keyword + " {\n" + body + strings.Repeat(indentUnit, tablevel+1) + "}"
		if level == 0 && memberName != "" {
			out += " " + memberName
		}
		return out, nil

	case KindEnum:
		if t.Name != "" {
			if level == 0 {
				return "enum " + t.Name + " " + memberName, nil
			}
			return "enum " + t.Name, nil
		}
		var b strings.Builder
		b.WriteString("enum {\n")
		for _, e := range t.Enumerators() {
			b.WriteString(strings.Repeat(indentUnit, tablevel+2))
			fmt.Fprintf(&b, "%s = %d,\n", e.Name, e.Value)
		}
		b.WriteString(strings.Repeat(indentUnit, tablevel+1))
		b.WriteString("}")
		out := b.String()
		if level == 0 && memberName != "" {
			out += " " + memberName
		}
		return out, nil

	case KindBase:
		name := t.Name
		if name == "" {
			name = "unknown"
		}
		if level == 0 {
			return name + " " + memberName, nil
		}
		return name, nil

	case KindSubroutine:
		// comma separated parameter type list
		var args []string
		for _, p := range t.Params() {
			inner, ok, err := p.Inner()
			if err != nil {
				return "", err
			}
			if !ok {
				args = append(args, "void")
				continue
			}
			arg, err := d.formatType(inner, "", level+1, tablevel, verbose, baseOffset)
			if err != nil {
				return "", err
			}
			args = append(args, arg)
		}
		return strings.Join(args, ", "), nil

	case KindPointer:
		inner, ok, err := t.Inner()
		if err != nil {
			return "", err
		}

		// pointers to subroutines render as function pointers
		if ok && inner.Kind == KindSubroutine {
			ret := "void"
			if rt, rok, err := inner.Inner(); err != nil {
				return "", err
			} else if rok {
				ret, err = d.formatType(rt, "", level+1, tablevel, verbose, baseOffset)
				if err != nil {
					return "", err
				}
			}
			args, err := d.formatType(inner, "", level+1, tablevel, verbose, baseOffset)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s (*%s)(%s)", ret, memberName, args), nil
		}

		// an absent pointee is a void pointer, not an error
		pointee := "void"
		if ok {
			pointee, err = d.formatType(inner, "", level+1, tablevel, verbose, baseOffset)
			if err != nil {
				return "", err
			}
		}
		out := pointee
		if strings.HasSuffix(pointee, "*") {
			out += "*"
		} else {
			out += " *"
		}
		if level == 0 {
			out += memberName
		}
		return out, nil

	case KindConst:
		inner, ok, err := t.Inner()
		if err != nil {
			return "", err
		}
		if !ok {
			return qualify("const void", memberName, level), nil
		}
		innerFmt, err := d.formatType(inner, "", level+1, tablevel, verbose, baseOffset)
		if err != nil {
			return "", err
		}
		return qualify("const "+innerFmt, memberName, level), nil

	case KindVolatile:
		inner, ok, err := t.Inner()
		if err != nil {
			return "", err
		}
		if !ok {
			return qualify("volatile void", memberName, level), nil
		}
		innerFmt, err := d.formatType(inner, "", level+1, tablevel, verbose, baseOffset)
		if err != nil {
			return "", err
		}
		return qualify("volatile "+innerFmt, memberName, level), nil

	case KindRestrict:
		inner, ok, err := t.Inner()
		if err != nil {
			return "", err
		}
		if !ok {
			return qualify("void restrict", memberName, level), nil
		}
		innerFmt, err := d.formatType(inner, "", level+1, tablevel, verbose, baseOffset)
		if err != nil {
			return "", err
		}
		return qualify(innerFmt+" restrict", memberName, level), nil

	case KindMember, KindParameter, KindVariable:
		inner, ok, err := t.Inner()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("formatting %#x: declaration has no type: %w",
				t.node.Offset, ErrMissingAttribute)
		}
		return d.formatType(inner, memberName, level, tablevel, verbose, baseOffset)
	}
	return "", fmt.Errorf("formatting %#x: kind %v: %w", t.node.Offset, t.Kind, ErrUnhandledTag)
}

// qualify appends the member name to a qualified type reference at
// declaration level.
func qualify(decl, memberName string, level int) string {
	if level == 0 && memberName != "" {
		return decl + " " + memberName
	}
	return decl
}
