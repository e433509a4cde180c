package wgsl

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/msl"
	"github.com/gogpu/naga/spirv"

	"github.com/gogpu/shaderbuild/toolchain"
)

// program is a selection of entry points from one module. A program with
// no source module is empty and produces an empty layout. Programs are
// immutable once built, so layout and code generation may run
// concurrently.
type program struct {
	session *session
	source  *module
	entries []int
	linked  bool

	// ir is the source IR restricted to entries.
	ir *ir.Module
}

func newProgram(s *session, source *module, entries []int) *program {
	return &program{session: s, source: source, entries: entries, ir: restrict(source, entries)}
}

// restrict returns a copy of the source IR holding only the selected entry
// points, in selection order.
func restrict(source *module, entries []int) *ir.Module {
	if source == nil {
		return &ir.Module{}
	}
	mod := cloneModule(source.ir)
	mod.EntryPoints = make([]ir.EntryPoint, 0, len(entries))
	for _, i := range entries {
		mod.EntryPoints = append(mod.EntryPoints, source.ir.EntryPoints[i])
	}
	return mod
}

// cloneModule copies the top-level slices of src so that backends
// appending to them cannot reach src.
func cloneModule(src *ir.Module) *ir.Module {
	mod := *src
	mod.Types = slices.Clone(src.Types)
	mod.Constants = slices.Clone(src.Constants)
	mod.GlobalVariables = slices.Clone(src.GlobalVariables)
	mod.GlobalExpressions = slices.Clone(src.GlobalExpressions)
	mod.Functions = slices.Clone(src.Functions)
	mod.EntryPoints = slices.Clone(src.EntryPoints)
	return &mod
}

// Link validates the restricted module unless the session skips
// validation.
func (p *program) Link() (toolchain.ComponentType, string) {
	if p.source != nil && p.session.validate {
		if diag := validate(p.label(), p.ir); diag != "" {
			return nil, diag
		}
	}
	return &program{session: p.session, source: p.source, entries: p.entries, linked: true, ir: p.ir}, ""
}

func (p *program) label() string {
	if p.source == nil {
		return "<empty>"
	}
	return p.source.path
}

func validate(label string, mod *ir.Module) string {
	errs, err := naga.Validate(mod)
	if err != nil {
		return fmt.Sprintf("%s: %v", label, err)
	}
	if len(errs) == 0 {
		return ""
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = fmt.Sprintf("%s: %v", label, e)
	}
	return strings.Join(lines, "\n")
}

func (p *program) target(index int) (target, string) {
	if index < 0 || index >= len(p.session.targets) {
		return target{}, fmt.Sprintf("target index %d out of range (session has %d)", index, len(p.session.targets))
	}
	return p.session.targets[index], ""
}

// Layout implements toolchain.ComponentType. WGSL layout does not depend
// on the target, so the index is only range-checked.
func (p *program) Layout(index int) (*toolchain.ProgramLayout, string) {
	if _, diag := p.target(index); diag != "" {
		return nil, diag
	}
	return buildLayout(p.ir), ""
}

// TargetCode implements toolchain.ComponentType.
func (p *program) TargetCode(index int) ([]byte, string) {
	t, diag := p.target(index)
	if diag != "" {
		return nil, diag
	}
	if p.source == nil {
		return nil, "empty program has no code"
	}
	code, err := generate(cloneModule(p.ir), t, p.session.debug)
	if err != nil {
		return nil, fmt.Sprintf("%s: %s: %v", p.label(), t.format, err)
	}
	return code, ""
}

func generate(mod *ir.Module, t target, debug bool) ([]byte, error) {
	switch t.format {
	case toolchain.FormatSPIRV:
		return naga.GenerateSPIRV(mod, spirv.Options{Version: t.spirv, Debug: debug})
	case toolchain.FormatMSL:
		opts := msl.DefaultOptions()
		opts.LangVersion = t.msl
		src, _, err := msl.Compile(mod, opts)
		return []byte(src), err
	case toolchain.FormatGLSL:
		opts := glsl.DefaultOptions()
		opts.LangVersion = t.glsl
		// A GLSL source holds one stage: the first selected entry point.
		if len(mod.EntryPoints) > 0 {
			opts.EntryPoint = mod.EntryPoints[0].Name
		}
		src, _, err := glsl.Compile(mod, opts)
		return []byte(src), err
	case toolchain.FormatHLSL:
		opts := hlsl.DefaultOptions()
		opts.ShaderModel = t.hlsl
		src, _, err := hlsl.Compile(mod, opts)
		return []byte(src), err
	default:
		return nil, fmt.Errorf("unsupported format %s", t.format)
	}
}
