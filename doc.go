// Package goskemaform binds a nested data tree to a validator, keeping per-path
// touched flags and error maps consistent while the tree is edited.
//
// - Reads and writes go through explicit wrappers (Object, Array) or dotted
//   paths (Value/SetValue, Field).
// - Array operations (Push, Remove, Swap, Splice, ...) rewrite touched flags
//   and errors keyed under the array so they follow their elements.
// - Validation is debounced; bursts of edits produce one pass, and results of
//   superseded passes are discarded.
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations under internal/.
// - Place the schema builder under schema/ and the CLI under cmd/goskemaform.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s := schema.New(schema.Object().
//		Field("name", schema.String().Min(2)).Required())
//	f, err := goskemaform.New(ctx, s, map[string]any{"name": ""})
//	f.SetValue("name", "Alice")
//	_ = f.Wait(ctx)
//	f.IsValid()
package goskemaform
