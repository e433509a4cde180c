package wgsl

import (
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/shaderbuild/toolchain"
)

// module is a lowered WGSL source. Its IR may be shared with other modules
// loaded from the same source and is never modified.
type module struct {
	session *session
	name    string
	path    string
	ir      *ir.Module
}

func (m *module) Name() string { return m.name }
func (m *module) Path() string { return m.path }

func (m *module) DefinedEntryPointCount() int {
	return len(m.ir.EntryPoints)
}

func (m *module) DefinedEntryPoint(index int) toolchain.EntryPoint {
	if index < 0 || index >= len(m.ir.EntryPoints) {
		return nil
	}
	return &entryPoint{module: m, index: index}
}

func (m *module) FindEntryPointByName(name string) toolchain.EntryPoint {
	for i, ep := range m.ir.EntryPoints {
		if ep.Name == name {
			return &entryPoint{module: m, index: i}
		}
	}
	return nil
}

func (m *module) program() *program {
	return newProgram(m.session, m, allEntryPoints(m.ir))
}

func (m *module) Link() (toolchain.ComponentType, string) { return m.program().Link() }

func (m *module) Layout(target int) (*toolchain.ProgramLayout, string) {
	return m.program().Layout(target)
}

func (m *module) TargetCode(target int) ([]byte, string) {
	return m.program().TargetCode(target)
}

type entryPoint struct {
	module *module
	index  int
}

func (e *entryPoint) Name() string {
	return e.module.ir.EntryPoints[e.index].Name
}

func (e *entryPoint) Stage() toolchain.Stage {
	return stageOf(e.module.ir.EntryPoints[e.index].Stage)
}

func (e *entryPoint) program() *program {
	return newProgram(e.module.session, e.module, []int{e.index})
}

func (e *entryPoint) Link() (toolchain.ComponentType, string) { return e.program().Link() }

func (e *entryPoint) Layout(target int) (*toolchain.ProgramLayout, string) {
	return e.program().Layout(target)
}

func (e *entryPoint) TargetCode(target int) ([]byte, string) {
	return e.program().TargetCode(target)
}

func stageOf(s ir.ShaderStage) toolchain.Stage {
	switch s {
	case ir.StageVertex:
		return toolchain.StageVertex
	case ir.StageFragment:
		return toolchain.StageFragment
	case ir.StageCompute:
		return toolchain.StageCompute
	default:
		return toolchain.StageNone
	}
}
