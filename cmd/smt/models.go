package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/smtgo/core/options"
	"github.com/YuminosukeSato/smtgo/surrogate/catalog"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the surrogate models and their options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range catalog.Names() {
				spec, err := catalog.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s (domain: %s)\n", spec.Name, spec.Policy)
				fmt.Fprintln(w, "  option\ttypes\tdefault\tdescription")
				for _, key := range spec.Schema.Keys() {
					d, _ := spec.Schema.Declaration(key)
					fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", key, kinds(d.Types), defaultText(d), d.Desc)
				}
				fmt.Fprintln(w)
			}
			return w.Flush()
		},
	}
}

func kinds(ks []options.Kind) string {
	if len(ks) == 0 {
		return "any"
	}
	s := ks[0].String()
	for _, k := range ks[1:] {
		s += "|" + k.String()
	}
	return s
}

func defaultText(d options.Declaration) string {
	if d.Required {
		return "(required)"
	}
	if d.Default == nil {
		return "None"
	}
	return fmt.Sprint(d.Default)
}
