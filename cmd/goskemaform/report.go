package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/goccy/go-json"
	"github.com/muesli/termenv"

	form "github.com/reoring/goskemaform"
)

type report struct {
	Validity string         `json:"validity"`
	Errors   form.ErrorMap  `json:"errors"`
	Touched  []string       `json:"touched,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

func newReport(f *form.Form, withData bool) report {
	r := report{
		Validity: f.Validity().String(),
		Errors:   f.Errors(),
	}
	for p := range f.Touched() {
		r.Touched = append(r.Touched, p)
	}
	sort.Strings(r.Touched)
	if withData {
		r.Data = f.Snapshot()
	}
	return r
}

type printer struct {
	w      io.Writer
	out    *termenv.Output
	asJSON bool
}

func newPrinter(w io.Writer, format string, noColor bool) *printer {
	opts := []termenv.OutputOption{}
	if noColor {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	return &printer{w: w, out: termenv.NewOutput(w, opts...), asJSON: format == "json"}
}

func (p *printer) color(s, c string) string {
	return p.out.String(s).Foreground(p.out.Color(c)).String()
}

func (p *printer) json(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.w, string(b))
	return err
}

func (p *printer) report(r report) error {
	if p.asJSON {
		return p.json(r)
	}
	switch r.Validity {
	case "valid":
		fmt.Fprintln(p.w, p.color("valid", "2"))
	case "invalid":
		fmt.Fprintln(p.w, p.color("invalid", "1"))
	default:
		fmt.Fprintln(p.w, p.color(r.Validity, "3"))
	}
	for _, path := range r.Errors.Paths() {
		name := path
		if name == "" {
			name = "(root)"
		}
		for _, msg := range r.Errors[path] {
			fmt.Fprintf(p.w, "  %s: %s\n", p.out.String(name).Bold(), msg)
		}
	}
	if len(r.Touched) > 0 {
		fmt.Fprintln(p.w, "touched:")
		for _, t := range r.Touched {
			fmt.Fprintf(p.w, "  %s\n", t)
		}
	}
	if r.Data != nil {
		fmt.Fprintln(p.w, "data:")
		b, err := json.MarshalIndent(r.Data, "  ", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(p.w, "  %s\n", b)
	}
	return nil
}
