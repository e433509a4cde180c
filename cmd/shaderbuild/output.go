package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/shaderbuild"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	okColor      = color.New(color.FgGreen)
	cachedColor  = color.New(color.FgCyan)
)

var (
	entryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	blockStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	fieldStyle = lipgloss.NewStyle().PaddingLeft(6)
	faintStyle = lipgloss.NewStyle().Faint(true)
)

func printError(w io.Writer, err error) {
	_, _ = errorColor.Fprint(w, "error: ")
	_, _ = fmt.Fprintln(w, strings.TrimRight(err.Error(), "\n"))
}

// printDiagnostics writes toolchain output, one warning per line.
func printDiagnostics(w io.Writer, label, diag string) {
	for _, line := range strings.Split(strings.TrimSpace(diag), "\n") {
		if line == "" {
			continue
		}
		_, _ = warningColor.Fprintf(w, "warning: %s: %s\n", label, line)
	}
}

// Reflection output formats.
const (
	outputYAML = "yaml"
	outputJSON = "json"
	outputText = "text"
)

func writeReflection(w io.Writer, prog *shaderbuild.ProgramReflection, format string) error {
	switch strings.ToLower(format) {
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(prog); err != nil {
			return err
		}
		return enc.Close()
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(prog)
	case outputText:
		_, err := io.WriteString(w, renderText(prog))
		return err
	default:
		return fmt.Errorf("unsupported output %q (must be yaml, json or text)", format)
	}
}

// renderText lays out a reflection for terminals:
//
//	vs_main (vertex)
//	  [0] vert  varying  size 2
//	        position  float3  @0
func renderText(prog *shaderbuild.ProgramReflection) string {
	var b strings.Builder
	if len(prog.EntryPoints) == 0 {
		b.WriteString(faintStyle.Render("no entry points"))
		b.WriteByte('\n')
	}
	for _, ep := range prog.EntryPoints {
		b.WriteString(entryStyle.Render(ep.Name))
		fmt.Fprintf(&b, " (%s)\n", ep.Stage)
		for _, block := range ep.ParameterBlocks {
			fmt.Fprintf(&b, "  [%d] %s\n", block.BindingIndex, blockStyle.Render(blockLine(block)))
			for _, f := range block.Fields {
				b.WriteString(fieldStyle.Render(fmt.Sprintf("%-12s %-9s @%d", f.Name, f.Type, f.Offset)))
				b.WriteByte('\n')
			}
		}
	}
	if prog.Diagnostics != "" {
		b.WriteString(faintStyle.Render(prog.Diagnostics))
		b.WriteByte('\n')
	}
	return b.String()
}

func blockLine(block shaderbuild.ParameterBlockReflection) string {
	line := fmt.Sprintf("%s  %s", block.Name, block.Kind)
	if block.Resource != nil {
		line += fmt.Sprintf("  @group(%d) @binding(%d)", block.Resource.Group, block.Resource.Binding)
	}
	if block.Size != 0 {
		line += fmt.Sprintf("  size %d", block.Size)
	}
	return line
}
