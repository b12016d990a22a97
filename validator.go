package goskemaform

import "context"

// Validator validates a whole data tree.
type Validator interface {
	// Parse returns the parsed tree, or an error (typically Issues) when the
	// tree is invalid.
	Parse(ctx context.Context, data map[string]any) (map[string]any, error)
	// SafeParse never returns an error; the outcome is carried in Result.
	SafeParse(ctx context.Context, data map[string]any) Result
}

// Result is the outcome of SafeParse.
type Result struct {
	Success bool
	Data    map[string]any
	// Errors is set when Success is false and the validator reported field
	// errors.
	Errors ErrorMap
	// Err is set when the validator could not run (as opposed to the tree
	// being invalid).
	Err error
}

// AsyncValidator is implemented by validators that resolve on another
// goroutine. The channel delivers exactly one Result.
type AsyncValidator interface {
	SafeParseAsync(ctx context.Context, data map[string]any) <-chan Result
}

// DefaultsResolver fills schema-declared defaults into a partial tree.
type DefaultsResolver interface {
	ResolveDefaults(ctx context.Context, partial map[string]any) (map[string]any, error)
}

// PathLister enumerates every valid path, using "0" for array elements.
type PathLister interface {
	Paths() []string
}

// AttributeProvider derives input constraints (type, required, minlength,
// pattern, ...) for a normalized path.
type AttributeProvider interface {
	InputAttributes(path string) map[string]any
}

// ResultFromError converts a Parse error into a Result. Issues become field
// errors; any other error is an invocation failure.
func ResultFromError(err error) Result {
	if err == nil {
		return Result{Success: true}
	}
	if iss, ok := AsIssues(err); ok {
		return Result{Errors: ErrorMapFromIssues(iss)}
	}
	return Result{Err: err}
}

// ValidatorFunc adapts a Parse-style function to Validator.
type ValidatorFunc func(ctx context.Context, data map[string]any) (map[string]any, error)

// Parse calls f.
func (f ValidatorFunc) Parse(ctx context.Context, data map[string]any) (map[string]any, error) {
	return f(ctx, data)
}

// SafeParse calls f and folds its error into the Result.
func (f ValidatorFunc) SafeParse(ctx context.Context, data map[string]any) Result {
	out, err := f(ctx, data)
	r := ResultFromError(err)
	if r.Success {
		r.Data = out
	}
	return r
}
