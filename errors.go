package dwat

import "errors"

// Sentinel errors returned by resolution, layout and formatting
// operations. Errors carrying additional context wrap one of these, so
// callers should test with errors.Is.
var (
	// ErrKindMismatch is returned when a handle resolves to an entry
	// whose tag disagrees with the handle's expected kind.
	ErrKindMismatch = errors.New("entry tag does not match expected kind")

	// ErrUnresolvedOffset is returned when a type reference points at an
	// offset with no entry in the store.
	ErrUnresolvedOffset = errors.New("no entry at offset")

	// ErrMissingAttribute is returned when an attribute required by the
	// requested operation is absent from the entry.
	ErrMissingAttribute = errors.New("required attribute is absent")

	// ErrDepthExceeded is returned when a typedef/qualifier chain is
	// longer than the resolver's hop bound, which indicates a cyclic or
	// malformed chain.
	ErrDepthExceeded = errors.New("type chain exceeds depth bound")

	// ErrUnhandledTag is returned when an entry's tag is outside the
	// supported set of type kinds.
	ErrUnhandledTag = errors.New("unsupported entry tag")
)
