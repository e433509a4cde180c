package shaderbuild

import (
	"errors"
	"strings"

	"github.com/gogpu/shaderbuild/toolchain"
)

// fakeToolchain serves canned modules and layouts.
type fakeToolchain struct {
	globalErr  error
	sessionErr error
	modules    map[string]*fakeModule
	desc       toolchain.SessionDesc
}

func (f *fakeToolchain) CreateGlobalSession() (toolchain.GlobalSession, error) {
	if f.globalErr != nil {
		return nil, f.globalErr
	}
	return f, nil
}

func (f *fakeToolchain) CreateSession(desc toolchain.SessionDesc) (toolchain.Session, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	f.desc = desc
	return &fakeSession{tc: f, targets: len(desc.Targets)}, nil
}

type fakeSession struct {
	tc      *fakeToolchain
	targets int
}

func (s *fakeSession) LoadModule(name string) (toolchain.Module, string) {
	if m, ok := s.tc.modules[name]; ok {
		return m, m.diag
	}
	return nil, "error: cannot open module " + name
}

func (s *fakeSession) LoadModuleFromSource(name, path, source string) (toolchain.Module, string) {
	if strings.Contains(source, "syntax error") {
		return nil, path + ":1:1: error: syntax error"
	}
	if m, ok := s.tc.modules[name]; ok {
		return m, m.diag
	}
	return &fakeModule{name: name, path: path}, ""
}

func (s *fakeSession) CreateCompositeComponentType(units []toolchain.ComponentType) (toolchain.ComponentType, string) {
	out := &fakeComponent{}
	for _, u := range units {
		switch v := u.(type) {
		case *fakeModule:
			out.entries = append(out.entries, v.entries...)
			out.code = v.code
		case *fakeEntryPoint:
			out.entries = append(out.entries, v.entries...)
			out.code = v.code
		default:
			return nil, "error: foreign component"
		}
	}
	return out, ""
}

func (s *fakeSession) TargetCount() int { return s.targets }

type fakeComponent struct {
	entries  []*toolchain.EntryPointLayout
	code     []byte
	codeDiag string
	linkDiag string
	noLayout bool
}

func (c *fakeComponent) Link() (toolchain.ComponentType, string) {
	if c.linkDiag != "" {
		return nil, c.linkDiag
	}
	linked := *c
	return &linked, ""
}

func (c *fakeComponent) Layout(target int) (*toolchain.ProgramLayout, string) {
	if c.noLayout || target != 0 {
		return nil, "error: no layout for target"
	}
	return &toolchain.ProgramLayout{EntryPoints: c.entries}, ""
}

func (c *fakeComponent) TargetCode(int) ([]byte, string) {
	return c.code, c.codeDiag
}

type fakeModule struct {
	fakeComponent
	name string
	path string
	diag string
}

func (m *fakeModule) Name() string                { return m.name }
func (m *fakeModule) Path() string                { return m.path }
func (m *fakeModule) DefinedEntryPointCount() int { return len(m.entries) }

func (m *fakeModule) DefinedEntryPoint(i int) toolchain.EntryPoint {
	if i < 0 || i >= len(m.entries) {
		return nil
	}
	return m.entryPoint(i)
}

func (m *fakeModule) FindEntryPointByName(name string) toolchain.EntryPoint {
	for i, ep := range m.entries {
		if ep.Name == name {
			return m.entryPoint(i)
		}
	}
	return nil
}

func (m *fakeModule) entryPoint(i int) *fakeEntryPoint {
	return &fakeEntryPoint{fakeComponent{entries: m.entries[i : i+1], code: m.code}}
}

type fakeEntryPoint struct {
	fakeComponent
}

func (e *fakeEntryPoint) Name() string           { return e.entries[0].Name }
func (e *fakeEntryPoint) Stage() toolchain.Stage { return e.entries[0].Stage }

var errFakeDevice = errors.New("fake: no device")

// Layout builders.

func scalarRefl(s toolchain.ScalarType) *toolchain.TypeReflection {
	return &toolchain.TypeReflection{Kind: toolchain.KindScalar, Scalar: s}
}

func vecLayout(n int, s toolchain.ScalarType, unit toolchain.Category) *toolchain.TypeLayout {
	return &toolchain.TypeLayout{
		Kind: toolchain.KindVector,
		Type: &toolchain.TypeReflection{
			Kind:         toolchain.KindVector,
			ElementCount: n,
			Element:      scalarRefl(s),
		},
		Categories: []toolchain.Category{unit},
	}
}

func leafLayout(kind toolchain.Kind, unit toolchain.Category) *toolchain.TypeLayout {
	return &toolchain.TypeLayout{
		Kind:       kind,
		Type:       &toolchain.TypeReflection{Kind: kind},
		Categories: []toolchain.Category{unit},
	}
}

func structLayout(unit toolchain.Category, size uint64, fields ...*toolchain.VarLayout) *toolchain.TypeLayout {
	return &toolchain.TypeLayout{
		Kind:       toolchain.KindStruct,
		Type:       &toolchain.TypeReflection{Kind: toolchain.KindStruct},
		Fields:     fields,
		Categories: []toolchain.Category{unit},
		Sizes:      map[toolchain.Category]uint64{unit: size},
	}
}

// member places a field at offset in its layout's own unit.
func member(name string, offset uint64, tl *toolchain.TypeLayout) *toolchain.VarLayout {
	return &toolchain.VarLayout{
		Name:    name,
		Type:    tl,
		Offsets: map[toolchain.Category]uint64{tl.CategoryByIndex(0): offset},
	}
}

func param(name string, tl *toolchain.TypeLayout, offsets map[toolchain.Category]uint64) *toolchain.VarLayout {
	return &toolchain.VarLayout{Name: name, Type: tl, Offsets: offsets}
}

func entry(name string, stage toolchain.Stage, params ...*toolchain.VarLayout) *toolchain.EntryPointLayout {
	return &toolchain.EntryPointLayout{
		Name:  name,
		Stage: stage,
		Var:   &toolchain.VarLayout{Name: name, Type: structLayout(toolchain.CategoryUniform, 0, params...)},
	}
}

// computeAddLayout is a compute kernel with one uniform block
// { float3 scale; float2 bias; } at binding 0, laid out with scalar
// packing.
func computeAddLayout() *toolchain.EntryPointLayout {
	u := toolchain.CategoryUniform
	return entry("computeMain", toolchain.StageCompute,
		param("params", structLayout(u, 20,
			member("scale", 0, vecLayout(3, toolchain.ScalarFloat32, u)),
			member("bias", 12, vecLayout(2, toolchain.ScalarFloat32, u)),
		), map[toolchain.Category]uint64{
			toolchain.CategoryConstantBuffer:      0,
			toolchain.CategoryDescriptorTableSlot: 0,
			toolchain.CategoryRegisterSpace:       0,
		}),
	)
}

func newFakeToolchain() *fakeToolchain {
	return &fakeToolchain{
		modules: map[string]*fakeModule{
			"compute_add": {
				fakeComponent: fakeComponent{
					entries: []*toolchain.EntryPointLayout{computeAddLayout()},
					code:    []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00},
				},
				name: "compute_add",
				path: "compute_add.wgsl",
			},
			"render": {
				fakeComponent: fakeComponent{
					entries: []*toolchain.EntryPointLayout{
						entry("vs_main", toolchain.StageVertex),
						entry("fs_main", toolchain.StageFragment),
					},
					code: []byte("void main() {}"),
				},
				name: "render",
				path: "render.wgsl",
				diag: "render.wgsl:3:1: warning: unused variable",
			},
		},
	}
}
