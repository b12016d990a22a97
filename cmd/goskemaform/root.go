package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	form "github.com/reoring/goskemaform"
	"github.com/reoring/goskemaform/internal/loader"
	"github.com/reoring/goskemaform/internal/logging"
	"github.com/reoring/goskemaform/schema"
)

// errInvalid is returned when the data does not validate; the report has
// already been written.
var errInvalid = errors.New("data is invalid")

type globalFlags struct {
	schema   string
	data     string
	format   string
	debounce time.Duration
	verbose  bool
	noColor  bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "goskemaform",
		Short:         "Validate and replay edits of data trees against a JSON Schema",
		Long:          `goskemaform binds a data document to a JSON Schema and reports field errors, touched paths and input constraints.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.schema, "schema", "", "JSON Schema document (.json, .yaml)")
	pf.StringVar(&g.data, "data", "", "data document (.json, .yaml)")
	pf.StringVar(&g.format, "format", "text", "output format: text or json")
	pf.DurationVar(&g.debounce, "debounce", form.DefaultDebounce, "validation debounce window")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log engine activity to stderr")
	pf.BoolVar(&g.noColor, "no-color", false, "disable coloured output")

	root.AddCommand(newCheckCmd(g), newReplayCmd(g), newPathsCmd(g))
	return root
}

func (g *globalFlags) validate() error {
	switch g.format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown --format %q (want text or json)", g.format)
	}
	if g.schema == "" {
		return errors.New("--schema is required")
	}
	return nil
}

func (g *globalFlags) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	return logging.NewWriter(cmd.ErrOrStderr(), level, false)
}

func (g *globalFlags) loadSchema() (*schema.Schema, error) {
	doc, err := loader.File(g.schema)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	s, err := schema.FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return s, nil
}

func (g *globalFlags) loadData() (map[string]any, error) {
	if g.data == "" {
		return map[string]any{}, nil
	}
	data, err := loader.File(g.data)
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	return data, nil
}

// open loads the schema and data and builds a Form over them.
func (g *globalFlags) open(cmd *cobra.Command) (*form.Form, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	s, err := g.loadSchema()
	if err != nil {
		return nil, err
	}
	data, err := g.loadData()
	if err != nil {
		return nil, err
	}
	return form.New(cmd.Context(), s, data, form.Options{
		Debounce: g.debounce,
		Logger:   g.logger(cmd),
	})
}
