package reactive

import (
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

var (
	// ErrUnknownMethod is returned for a method name no array supports.
	ErrUnknownMethod = errors.New("reactive: unknown array method")
	// ErrBadArgs is returned when a method receives arguments of the wrong shape.
	ErrBadArgs = errors.New("reactive: bad method arguments")
	// ErrNotArray is returned when the path does not hold an array.
	ErrNotArray = errors.New("reactive: not an array")
)

// Method is an array operation bound to a path, invoked with dynamic
// arguments as a scripting surface would pass them.
type Method func(args ...any) (any, error)

// MethodNames lists the supported array methods.
var MethodNames = []string{"push", "pop", "shift", "unshift", "splice", "reverse", "fill", "swap", "insert", "remove"}

// Method returns the named operation for the array at p. Bound methods are
// cached per path and dropped when the array's ancestors shift.
func (t *Tree) Method(p, name string) (Method, error) {
	key := p + "#" + name
	t.Lock()
	if m, ok := t.methods.Get(key); ok {
		t.Unlock()
		return m, nil
	}
	t.Unlock()

	op, ok := methodTable[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
	m := Method(func(args ...any) (any, error) {
		a := t.Array(p)
		if a == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotArray, p)
		}
		return op(a, args)
	})

	t.Lock()
	t.methods.Set(key, m)
	t.Unlock()
	return m, nil
}

var methodTable = map[string]func(a *Array, args []any) (any, error){
	"push": func(a *Array, args []any) (any, error) {
		return a.Push(args...), nil
	},
	"pop": func(a *Array, _ []any) (any, error) {
		return a.Pop(), nil
	},
	"shift": func(a *Array, _ []any) (any, error) {
		return a.Shift(), nil
	},
	"unshift": func(a *Array, args []any) (any, error) {
		return a.Unshift(args...), nil
	},
	"splice": func(a *Array, args []any) (any, error) {
		if len(args) == 0 {
			return []any{}, nil
		}
		start, err := toInt(args[0])
		if err != nil {
			return nil, err
		}
		count := ToEnd
		if len(args) > 1 {
			if count, err = toInt(args[1]); err != nil {
				return nil, err
			}
		}
		var items []any
		if len(args) > 2 {
			items = args[2:]
		}
		return a.Splice(start, count, items...), nil
	},
	"reverse": func(a *Array, _ []any) (any, error) {
		a.Reverse()
		return nil, nil
	},
	"fill": func(a *Array, args []any) (any, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: fill needs a value", ErrBadArgs)
		}
		start, end := 0, math.MaxInt
		var err error
		if len(args) > 1 {
			if start, err = toInt(args[1]); err != nil {
				return nil, err
			}
		}
		if len(args) > 2 {
			if end, err = toInt(args[2]); err != nil {
				return nil, err
			}
		}
		a.Fill(args[0], start, end)
		return nil, nil
	},
	"swap": func(a *Array, args []any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: swap needs two indexes", ErrBadArgs)
		}
		i, err := toInt(args[0])
		if err != nil {
			return nil, err
		}
		j, err := toInt(args[1])
		if err != nil {
			return nil, err
		}
		a.Swap(i, j)
		return nil, nil
	},
	"insert": func(a *Array, args []any) (any, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: insert needs an index", ErrBadArgs)
		}
		i, err := toInt(args[0])
		if err != nil {
			return nil, err
		}
		a.Insert(i, args[1:]...)
		return nil, nil
	},
	"remove": func(a *Array, args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: remove needs one index", ErrBadArgs)
		}
		i, err := toInt(args[0])
		if err != nil {
			return nil, err
		}
		return a.Remove(i), nil
	},
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrBadArgs, x)
		}
		return int(x), nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrBadArgs, err)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("%w: %T is not an index", ErrBadArgs, v)
}
