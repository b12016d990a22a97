package goskemaform

import (
	"maps"

	"github.com/reoring/goskemaform/internal/path"
)

// FieldView is a per-path façade over a Form. Views for valid paths are
// cached per raw path and dropped when an ancestor array shifts; paths the
// validator does not declare, and malformed paths, get an inert view that
// reads as empty and ignores writes.
type FieldView struct {
	f           *Form
	path        string
	inert       bool
	constraints map[string]any
}

// Field returns the view for p.
func (f *Form) Field(p string) *FieldView {
	f.tree.Lock()
	defer f.tree.Unlock()
	if fv, ok := f.fields.Get(p); ok {
		return fv
	}
	if !f.declaredLocked(p) {
		return &FieldView{f: f, path: p, inert: true}
	}
	fv := &FieldView{f: f, path: p}
	if ap, ok := f.v.(AttributeProvider); ok {
		fv.constraints = ap.InputAttributes(path.Normalize(p))
	}
	f.fields.Set(p, fv)
	return fv
}

func (f *Form) declaredLocked(p string) bool {
	if _, err := path.Parse(p); err != nil {
		return false
	}
	return f.declared == nil || f.declared[path.Normalize(p)]
}

// Path returns the raw path of the view.
func (fv *FieldView) Path() string { return fv.path }

// Inert reports whether the view is detached from the Form.
func (fv *FieldView) Inert() bool { return fv.inert }

// Value returns the value at the view's path.
func (fv *FieldView) Value() any {
	if fv.inert {
		return nil
	}
	return fv.f.Value(fv.path)
}

// SetValue writes through the same path as Form.SetValue.
func (fv *FieldView) SetValue(v any) bool {
	if fv.inert {
		return false
	}
	return fv.f.SetValue(fv.path, v)
}

// Error returns the first effective error: the first schema error if any,
// else the first custom error.
func (fv *FieldView) Error() string {
	if fv.inert {
		return ""
	}
	l := fv.f.FieldErrors(fv.path)
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

// SetError sets the custom error; an empty msg clears it.
func (fv *FieldView) SetError(msg string) {
	if !fv.inert {
		fv.f.SetCustomError(fv.path, msg)
	}
}

// Errors returns the effective error list.
func (fv *FieldView) Errors() []string {
	if fv.inert {
		return nil
	}
	return fv.f.FieldErrors(fv.path)
}

// SetErrors replaces the custom errors; an empty list clears them.
func (fv *FieldView) SetErrors(msgs []string) {
	if !fv.inert {
		fv.f.SetCustomErrors(fv.path, msgs)
	}
}

// Touched reports whether the path or anything below it is touched.
func (fv *FieldView) Touched() bool {
	if fv.inert {
		return false
	}
	return fv.f.IsTouched(fv.path)
}

// SetTouched marks the path touched, or pristine together with its
// descendants.
func (fv *FieldView) SetTouched(touched bool) {
	switch {
	case fv.inert:
	case touched:
		fv.f.MarkTouched(fv.path)
	default:
		fv.f.MarkFieldAsPristine(fv.path)
	}
}

// Constraints returns a copy of the input attributes computed when the view
// was created.
func (fv *FieldView) Constraints() map[string]any {
	fv.f.tree.Lock()
	defer fv.f.tree.Unlock()
	return maps.Clone(fv.constraints)
}

// SetConstraints overrides the view's input attributes.
func (fv *FieldView) SetConstraints(c map[string]any) {
	fv.f.tree.Lock()
	defer fv.f.tree.Unlock()
	fv.constraints = maps.Clone(c)
}
