package path

import "strconv"

// Builder builds paths in a chain-safe way: every call returns a new value
// and never aliases the receiver's segments.
type Builder struct {
	parts []string
}

// Root returns an empty builder.
func Root() Builder { return Builder{} }

// At starts a builder from a dotted path.
func At(raw string) Builder {
	if raw == "" {
		return Builder{}
	}
	segs, err := Parse(raw)
	if err != nil {
		return Builder{}
	}
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.Key
	}
	return Builder{parts: parts}
}

// Field appends an object key. An empty name is ignored.
func (b Builder) Field(name string) Builder {
	if name == "" {
		return b
	}
	return Builder{parts: append(append([]string{}, b.parts...), name)}
}

// Index appends an array ordinal.
func (b Builder) Index(i int) Builder {
	return Builder{parts: append(append([]string{}, b.parts...), strconv.Itoa(i))}
}

// Depth returns the number of segments.
func (b Builder) Depth() int { return len(b.parts) }

// String renders the dotted form.
func (b Builder) String() string { return Join("", b.parts...) }

// Pointer renders the JSON Pointer form.
func (b Builder) Pointer() string { return toPointer(b.String()) }
