package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/normanking/cortexrig/internal/avatar2d"
	"github.com/spf13/cobra"
)

func newEmotionsCmd(flags *rootFlags) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "emotions",
		Short: "List the emotion catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			if asYAML {
				data, err := cat.Marshal()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMOTION\tTRANSITION\tHOLD\tTARGET")
			for _, name := range cat.Names() {
				e, _ := cat.Lookup(name)
				hold := e.Hold.String()
				if e.Neutral {
					hold = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Name, e.Motion, e.Transition, hold, formatTarget(e.Target))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the catalog as a YAML document")
	return cmd
}

func formatTarget(v avatar2d.Vector) string {
	parts := make([]string, 0, v.Len())
	for _, p := range v.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%g", p, v.Get(p)))
	}
	return strings.Join(parts, " ")
}
