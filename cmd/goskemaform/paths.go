package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

type pathInfo struct {
	Path       string         `json:"path"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

func newPathsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "List the paths a schema declares with their input constraints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := g.validate(); err != nil {
				return err
			}
			s, err := g.loadSchema()
			if err != nil {
				return err
			}
			var infos []pathInfo
			for _, p := range s.Paths() {
				infos = append(infos, pathInfo{Path: p, Attributes: s.InputAttributes(p)})
			}
			pr := newPrinter(cmd.OutOrStdout(), g.format, g.noColor)
			if pr.asJSON {
				return pr.json(infos)
			}
			for _, in := range infos {
				fmt.Fprintf(pr.w, "%s%s\n", in.Path, formatAttrs(in.Attributes))
			}
			return nil
		},
	}
}

func formatAttrs(attrs map[string]any) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, attrs[k])
	}
	return " [" + strings.Join(parts, " ") + "]"
}
