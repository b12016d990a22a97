package path

// Compiled is an immutable, reusable accessor pair for one path.
type Compiled struct {
	Raw      string
	Segments []Segment
}

// Compile parses raw and returns its accessor pair.
func Compile(raw string) (*Compiled, error) {
	segs, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return &Compiled{Raw: raw, Segments: segs}, nil
}

// Get reads the value at the compiled path. Missing segments, out-of-range
// ordinals and non-container intermediates yield nil.
func (c *Compiled) Get(tree map[string]any) any {
	if c == nil || tree == nil {
		return nil
	}
	var cur any = tree
	for _, s := range c.Segments {
		next, ok := step(cur, s)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// Lookup is like Get but also reports whether the full path resolved.
func (c *Compiled) Lookup(tree map[string]any) (any, bool) {
	if c == nil || tree == nil {
		return nil, false
	}
	var cur any = tree
	for _, s := range c.Segments {
		next, ok := step(cur, s)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func step(cur any, s Segment) (any, bool) {
	switch t := cur.(type) {
	case map[string]any:
		v, ok := t[s.Key]
		return v, ok
	case []any:
		if !s.Ordinal || s.Index >= len(t) {
			return nil, false
		}
		return t[s.Index], true
	default:
		return nil, false
	}
}

// Set writes v at the compiled path, creating missing intermediates. The shape
// of a created intermediate follows the next segment: ordinal -> []any,
// key -> map[string]any. An intermediate holding a scalar is replaced.
//
// An ordinal may address an existing element or the slot right after the
// last one. Set reports false and leaves tree untouched when the path skips
// past the end of a slice or addresses a slice by key.
func (c *Compiled) Set(tree map[string]any, v any) bool {
	if c == nil || tree == nil || len(c.Segments) == 0 || !c.fits(tree) {
		return false
	}
	// the root is a map, so setIn never reallocates it
	setIn(tree, c.Segments, v)
	return true
}

// fits reports whether every segment lands on an existing entry, a new map
// key or the append slot of a slice.
func (c *Compiled) fits(tree map[string]any) bool {
	var cur any = tree
	for _, s := range c.Segments {
		switch t := cur.(type) {
		case map[string]any:
			cur = t[s.Key]
		case []any:
			if !s.Ordinal || s.Index > len(t) {
				return false
			}
			cur = nil
			if s.Index < len(t) {
				cur = t[s.Index]
			}
		default:
			// created empty by vivify
			if s.Ordinal && s.Index > 0 {
				return false
			}
			cur = nil
		}
	}
	return true
}

// setIn returns the (possibly reallocated) container so parents can write
// grown slices back.
func setIn(cur any, segs []Segment, v any) any {
	s := segs[0]
	last := len(segs) == 1
	switch t := cur.(type) {
	case map[string]any:
		if last {
			t[s.Key] = v
			return t
		}
		t[s.Key] = setIn(vivify(t[s.Key], segs[1]), segs[1:], v)
		return t
	case []any:
		if !s.Ordinal || s.Index > len(t) {
			return t
		}
		if s.Index == len(t) {
			t = append(t, nil)
		}
		if last {
			t[s.Index] = v
			return t
		}
		t[s.Index] = setIn(vivify(t[s.Index], segs[1]), segs[1:], v)
		return t
	default:
		return cur
	}
}

func vivify(cur any, next Segment) any {
	switch cur.(type) {
	case map[string]any, []any:
		return cur
	}
	if next.Ordinal {
		return []any{}
	}
	return map[string]any{}
}
