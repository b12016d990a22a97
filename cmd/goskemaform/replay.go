package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	form "github.com/reoring/goskemaform"
	"github.com/reoring/goskemaform/internal/loader"
)

// script is a replay document: steps applied in order to a Form.
type script struct {
	Steps []step `json:"steps" yaml:"steps"`
}

type step struct {
	Op      string `json:"op" yaml:"op"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Value   any    `json:"value,omitempty" yaml:"value,omitempty"`
	Items   []any  `json:"items,omitempty" yaml:"items,omitempty"`
	Index   int    `json:"index,omitempty" yaml:"index,omitempty"`
	I       int    `json:"i,omitempty" yaml:"i,omitempty"`
	J       int    `json:"j,omitempty" yaml:"j,omitempty"`
	Method  string `json:"method,omitempty" yaml:"method,omitempty"`
	Args    []any  `json:"args,omitempty" yaml:"args,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

var errUnknownOp = errors.New("unknown step op")

func newReplayCmd(g *globalFlags) *cobra.Command {
	var scriptPath string
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Apply a script of edits to a data document",
		Long: `Loads --data, applies the steps of --script (set, push, insert, remove, swap,
call, touch, pristine, error, reset, validate, wait) and prints the final state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if scriptPath == "" {
				return errors.New("--script is required")
			}
			var sc script
			if err := loader.DecodeFile(scriptPath, &sc); err != nil {
				return fmt.Errorf("load script: %w", err)
			}
			f, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer f.Dispose()

			log := g.logger(cmd)
			cancel := f.Subscribe(func(ev form.Event) {
				log.Debug("event", "kind", ev.Kind.String(), "path", ev.Path, "mutations", len(ev.Mutations), "valid", ev.Valid)
			})
			defer cancel()

			for i, st := range sc.Steps {
				if err := applyStep(cmd.Context(), f, st); err != nil {
					return fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
				}
			}
			if err := f.Wait(cmd.Context()); err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), g.format, g.noColor).report(newReport(f, true))
		},
	}
	cmd.Flags().StringVar(&scriptPath, "script", "", "replay script (.json, .yaml)")
	return cmd
}

func applyStep(ctx context.Context, f *form.Form, st step) error {
	switch st.Op {
	case "set":
		f.SetValue(st.Path, loader.Normalize(st.Value))
	case "push":
		f.Push(st.Path, normalizeAll(st.Items)...)
	case "insert":
		f.Insert(st.Path, st.Index, normalizeAll(st.Items)...)
	case "remove":
		f.Remove(st.Path, st.Index)
	case "swap":
		f.Swap(st.Path, st.I, st.J)
	case "call":
		if _, err := f.Call(st.Path, st.Method, normalizeAll(st.Args)...); err != nil {
			return err
		}
	case "touch":
		f.MarkTouched(st.Path)
	case "pristine":
		if st.Path == "" {
			f.MarkAllAsPristine()
		} else {
			f.MarkFieldAsPristine(st.Path)
		}
	case "error":
		f.SetCustomError(st.Path, st.Message)
	case "reset":
		f.Reset()
	case "validate":
		if _, err := f.ValidateSchema(ctx); err != nil {
			return err
		}
	case "wait":
		return f.Wait(ctx)
	default:
		return fmt.Errorf("%w %q", errUnknownOp, st.Op)
	}
	return nil
}

func normalizeAll(vs []any) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = loader.Normalize(v)
	}
	return out
}
