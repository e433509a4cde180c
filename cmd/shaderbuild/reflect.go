package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/shaderbuild"
)

type reflectFlags struct {
	entries []string
	output  string
}

func newReflectCmd(g *globalFlags) *cobra.Command {
	f := &reflectFlags{}
	cmd := &cobra.Command{
		Use:   "reflect [flags] module",
		Short: "Describe the parameter layout of a module's entry points",
		Long: `Link a module and print the parameter blocks of its entry points.
With --entry, only the named entry points are composed into the program,
in the order given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReflect(cmd, g, f, args[0])
		},
	}
	cmd.Flags().StringSliceVarP(&f.entries, "entry", "e", nil, "entry point to include (repeatable)")
	cmd.Flags().StringVarP(&f.output, "output", "O", outputYAML, "output format (yaml|json|text)")
	return cmd
}

func runReflect(cmd *cobra.Command, g *globalFlags, f *reflectFlags, module string) error {
	cfg, err := g.targetConfig()
	if err != nil {
		return err
	}
	c, err := shaderbuild.New(cfg)
	if err != nil {
		return err
	}

	linked, err := linkProgram(c, module, f.entries)
	if err != nil {
		return err
	}
	if d := linked.Diagnostics(); d != "" {
		printDiagnostics(cmd.ErrOrStderr(), module, d)
	}
	prog, err := linked.Reflect()
	if err != nil {
		return err
	}
	return writeReflection(cmd.OutOrStdout(), prog, f.output)
}

// linkProgram links the whole module, or only the named entry points when
// entries is not empty.
func linkProgram(c *shaderbuild.Compiler, module string, entries []string) (*shaderbuild.Component, error) {
	m := c.LoadModule(module)
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %s\n%s", shaderbuild.ErrInvalidModule, module, m.Diagnostics())
	}
	if len(entries) == 0 {
		return checkLinked(c.LinkModule(m))
	}

	list := shaderbuild.NewComponentList()
	eps := make([]*shaderbuild.EntryPoint, len(entries))
	for i, name := range entries {
		eps[i] = m.FindEntryPointByName(name)
		if !eps[i].Valid() {
			return nil, fmt.Errorf("%w: %s has no entry point %q", shaderbuild.ErrInvalidEntryPoint, module, name)
		}
	}
	if err := list.AddModule(m); err != nil {
		return nil, err
	}
	for _, ep := range eps {
		if err := list.AddEntryPoint(ep); err != nil {
			return nil, err
		}
	}
	composed, err := c.Compose(list)
	if err != nil {
		return nil, err
	}
	if !composed.Valid() {
		return nil, fmt.Errorf("%w: compose %s\n%s", shaderbuild.ErrInvalidComponent, module, composed.Diagnostics())
	}
	return checkLinked(c.Link(composed))
}

func checkLinked(linked *shaderbuild.Component, err error) (*shaderbuild.Component, error) {
	if err != nil {
		return nil, err
	}
	if !linked.Valid() {
		return nil, fmt.Errorf("%w: link\n%s", shaderbuild.ErrInvalidComponent, linked.Diagnostics())
	}
	return linked, nil
}
