package dwat

import "fmt"

// Hole is a run of unused padding bytes preceding a member.
type Hole struct {
	// MemberIndex is the index of the member the hole sits in front of.
	MemberIndex int
	Bytes       int64
}

// AlignmentStats summarizes padding and alignment behavior of a struct,
// in the spirit of pahole.
type AlignmentStats struct {
	// Holes are the gaps between consecutive members.
	Holes []Hole

	// HoleBytes is the total number of bytes lost to holes.
	HoleBytes int64

	// MemberBytes is the sum of all member sizes.
	MemberBytes int64

	// Padding is the number of trailing unused bytes.
	Padding int64

	// Misaligned counts members placed at an offset not divisible by
	// their natural size (array members use their element size).
	Misaligned int
}

// AlignmentStats computes padding and alignment statistics for a struct
// handle. Members without a resolvable size or offset are skipped.
func (d *Dwarf) AlignmentStats(h Handle) (AlignmentStats, error) {
	t, err := d.Resolve(h)
	if err != nil {
		return AlignmentStats{}, err
	}
	if t.Kind != KindStruct {
		return AlignmentStats{}, fmt.Errorf("alignment stats of %#x: %v is not a struct: %w",
			h.off, t.Kind, ErrKindMismatch)
	}

	var stats AlignmentStats
	prevEnd := int64(0)
	first := true
	for idx, member := range t.Members() {
		layout, err := d.memberLayout(member)
		if err != nil {
			return AlignmentStats{}, err
		}
		if layout.SizeUnknown || layout.OffsetUnknown || layout.Bitfield {
			continue
		}
		stats.MemberBytes += layout.ByteSize

		// array members align on their element size, not the whole array
		single := layout.ByteSize
		inner, ok, err := member.Inner()
		if err != nil {
			return AlignmentStats{}, err
		}
		if ok && inner.Kind == KindArray {
			if elem, elemOK, err := arrayElemSize(d, inner); err != nil {
				return AlignmentStats{}, err
			} else if elemOK {
				single = elem
			}
		}
		if layout.ByteSize == 0 || single == 0 {
			continue
		}

		if !first {
			if hole := layout.ByteOffset - prevEnd; hole > 0 {
				stats.Holes = append(stats.Holes, Hole{MemberIndex: idx, Bytes: hole})
				stats.HoleBytes += hole
			}
		}
		if layout.ByteOffset%single != 0 {
			stats.Misaligned++
		}

		prevEnd = layout.ByteOffset + layout.ByteSize
		first = false
	}

	if total, known, err := t.ByteSize(); err != nil {
		return AlignmentStats{}, err
	} else if known && total > prevEnd {
		stats.Padding = total - prevEnd
	}
	return stats, nil
}

func arrayElemSize(d *Dwarf, arr Type) (int64, bool, error) {
	inner, ok, err := arr.Inner()
	if err != nil || !ok {
		return 0, false, err
	}
	return d.byteSize(inner, 0)
}
