package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/shaderbuild"
)

func newEntriesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "entries module",
		Short: "List a module's entry points and their stages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.targetConfig()
			if err != nil {
				return err
			}
			c, err := shaderbuild.New(cfg)
			if err != nil {
				return err
			}
			m := c.LoadModule(args[0])
			if !m.Valid() {
				return fmt.Errorf("%w: %s\n%s", shaderbuild.ErrInvalidModule, args[0], m.Diagnostics())
			}
			out := cmd.OutOrStdout()
			for i := range m.EntryPointCount() {
				ep := m.EntryPointAt(i)
				fmt.Fprintf(out, "%-20s %s\n", entryStyle.Render(ep.Name()), ep.Stage())
			}
			return nil
		},
	}
}
