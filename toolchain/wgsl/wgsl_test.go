package wgsl

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/gogpu/shaderbuild/toolchain"
)

const computeSource = `
struct Params {
    scale: vec3<f32>,
    bias: vec2<f32>,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read_write> data: array<f32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    let i = id.x;
    data[i] = data[i] * params.scale.x + params.bias.y;
}
`

const renderSource = `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) uv: vec2<f32>,
}

struct Camera {
    view_proj: mat4x4<f32>,
    tint: vec4<f32>,
}

@group(1) @binding(2) var<uniform> camera: Camera;

@vertex
fn vs_main(vert: VertexInput) -> @builtin(position) vec4<f32> {
    return camera.view_proj * vec4<f32>(vert.position, vert.uv.x) + camera.tint;
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

func newSession(t *testing.T, tc Toolchain, desc toolchain.SessionDesc) *session {
	t.Helper()
	g, err := tc.CreateGlobalSession()
	if err != nil {
		t.Fatalf("CreateGlobalSession: %v", err)
	}
	if len(desc.Targets) == 0 {
		desc.Targets = []toolchain.TargetDesc{{Format: toolchain.FormatSPIRV, Profile: "spirv_1_0"}}
	}
	s, err := g.CreateSession(desc)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return s.(*session)
}

func mustLoad(t *testing.T, s *session, name, source string) *module {
	t.Helper()
	m, diag := s.LoadModuleFromSource(name, name+".wgsl", source)
	if m == nil {
		t.Fatalf("LoadModuleFromSource(%s): %s", name, diag)
	}
	return m.(*module)
}

func TestCreateSessionErrors(t *testing.T) {
	g, _ := Toolchain{}.CreateGlobalSession()
	spirv := []toolchain.TargetDesc{{Format: toolchain.FormatSPIRV}}

	tests := []struct {
		name string
		desc toolchain.SessionDesc
		want string
	}{
		{"no targets", toolchain.SessionDesc{}, "at least one target"},
		{"unknown format", toolchain.SessionDesc{Targets: []toolchain.TargetDesc{{Format: toolchain.FormatUnknown}}}, "unsupported format"},
		{"unknown profile", toolchain.SessionDesc{Targets: []toolchain.TargetDesc{{Format: toolchain.FormatSPIRV, Profile: "spirv_9_9"}}}, "unknown spirv profile"},
		{"profile of other format", toolchain.SessionDesc{Targets: []toolchain.TargetDesc{{Format: toolchain.FormatMSL, Profile: "spirv_1_0"}}}, "unknown msl profile"},
		{"unknown option", toolchain.SessionDesc{Targets: spirv, Options: []toolchain.OptionEntry{toolchain.IntOption("Optimize", 1)}}, "unknown option"},
		{"string option", toolchain.SessionDesc{Targets: spirv, Options: []toolchain.OptionEntry{{Name: toolchain.OptionDebugInformation, Kind: toolchain.OptionKindString}}}, "int value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := g.CreateSession(tt.desc)
			if err == nil {
				t.Fatalf("CreateSession succeeded with %T", s)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestCreateSessionDefaults(t *testing.T) {
	s := newSession(t, Toolchain{}, toolchain.SessionDesc{
		Targets: []toolchain.TargetDesc{
			{Format: toolchain.FormatSPIRV},
			{Format: toolchain.FormatGLSL, Profile: "GLSL_ES_310"},
		},
		Options: []toolchain.OptionEntry{
			toolchain.IntOption(toolchain.OptionEmitSpirvDirectly, 1),
			toolchain.IntOption(toolchain.OptionDebugInformation, 1),
			toolchain.IntOption(toolchain.OptionSkipValidation, 1),
		},
	})
	if s.TargetCount() != 2 {
		t.Fatalf("TargetCount() = %d, want 2", s.TargetCount())
	}
	if s.targets[0].profile != "spirv_1_3" {
		t.Errorf("default spirv profile = %q, want spirv_1_3", s.targets[0].profile)
	}
	if s.targets[1].profile != "glsl_es_310" || !s.targets[1].glsl.ES {
		t.Errorf("glsl target = %+v, want glsl_es_310", s.targets[1])
	}
	if !s.debug || s.validate {
		t.Errorf("debug = %v, validate = %v; want true, false", s.debug, s.validate)
	}
}

func TestProfiles(t *testing.T) {
	got := Profiles(toolchain.FormatHLSL)
	if len(got) != 2 || got[0] != "sm_5_1" || got[1] != "sm_6_0" {
		t.Errorf("Profiles(hlsl) = %v", got)
	}
	if got := Profiles(toolchain.FormatUnknown); len(got) != 0 {
		t.Errorf("Profiles(unknown) = %v, want none", got)
	}
	if len(Profiles(toolchain.FormatGLSL)) != 10 {
		t.Errorf("Profiles(glsl) = %v", Profiles(toolchain.FormatGLSL))
	}
}

func TestLoadModuleSearchPaths(t *testing.T) {
	fsys := fstest.MapFS{
		"shaders/compute.wgsl": {Data: []byte(computeSource)},
		"render.wgsl":          {Data: []byte(renderSource)},
	}
	s := newSession(t, Toolchain{FS: fsys}, toolchain.SessionDesc{SearchPaths: []string{"lib", "shaders"}})

	tests := []struct {
		name     string
		wantName string
		wantPath string
	}{
		{"compute", "compute", "shaders/compute.wgsl"},
		{"compute.wgsl", "compute", "shaders/compute.wgsl"},
		{"render", "render", "render.wgsl"},
		{"shaders/compute.wgsl", "compute", "shaders/compute.wgsl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, diag := s.LoadModule(tt.name)
			if m == nil {
				t.Fatalf("LoadModule: %s", diag)
			}
			if m.Name() != tt.wantName || m.Path() != tt.wantPath {
				t.Errorf("got %s at %s, want %s at %s", m.Name(), m.Path(), tt.wantName, tt.wantPath)
			}
		})
	}

	m, diag := s.LoadModule("missing")
	if m != nil {
		t.Fatal("LoadModule(missing) returned a module")
	}
	if !strings.Contains(diag, "not found") || !strings.Contains(diag, "lib/missing.wgsl") {
		t.Errorf("diagnostics = %q", diag)
	}
}

func TestLoadModuleSyntaxError(t *testing.T) {
	s := newSession(t, Toolchain{}, toolchain.SessionDesc{})
	m, diag := s.LoadModuleFromSource("broken", "broken.wgsl", "fn main( {")
	if m != nil {
		t.Fatal("syntax error produced a module")
	}
	if !strings.HasPrefix(diag, "broken.wgsl: ") {
		t.Errorf("diagnostics = %q, want file prefix", diag)
	}
	if s.global.modules.Len() != 0 {
		t.Error("failed module was cached")
	}
}

func TestLoadModuleCachesBySource(t *testing.T) {
	s := newSession(t, Toolchain{CacheSize: 4}, toolchain.SessionDesc{})
	a := mustLoad(t, s, "a", computeSource)
	b := mustLoad(t, s, "b", computeSource)
	if a.ir != b.ir {
		t.Error("identical sources were lowered twice")
	}
	if b.Name() != "b" {
		t.Errorf("cached module name = %q, want b", b.Name())
	}
	if st := s.global.modules.Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Errorf("cache stats = %+v", st)
	}
}

func TestEntryPoints(t *testing.T) {
	s := newSession(t, Toolchain{}, toolchain.SessionDesc{})
	m := mustLoad(t, s, "render", renderSource)

	if n := m.DefinedEntryPointCount(); n != 2 {
		t.Fatalf("DefinedEntryPointCount() = %d, want 2", n)
	}
	if ep := m.DefinedEntryPoint(2); ep != nil {
		t.Errorf("DefinedEntryPoint(2) = %v, want nil", ep)
	}
	if ep := m.DefinedEntryPoint(-1); ep != nil {
		t.Errorf("DefinedEntryPoint(-1) = %v, want nil", ep)
	}
	if ep := m.FindEntryPointByName("cs_main"); ep != nil {
		t.Errorf("FindEntryPointByName(cs_main) = %v, want nil", ep)
	}

	fs := m.FindEntryPointByName("fs_main")
	if fs == nil {
		t.Fatal("fs_main not found")
	}
	if fs.Name() != "fs_main" || fs.Stage() != toolchain.StageFragment {
		t.Errorf("fs_main = %s %s", fs.Name(), fs.Stage())
	}
	if vs := m.DefinedEntryPoint(0); vs.Stage() != toolchain.StageVertex {
		t.Errorf("entry 0 stage = %s, want vertex", vs.Stage())
	}
}

func TestCompose(t *testing.T) {
	s := newSession(t, Toolchain{}, toolchain.SessionDesc{})
	m := mustLoad(t, s, "render", renderSource)
	fs := m.FindEntryPointByName("fs_main")
	vs := m.FindEntryPointByName("vs_main")

	t.Run("module only selects all", func(t *testing.T) {
		c, diag := s.CreateCompositeComponentType([]toolchain.ComponentType{m})
		if c == nil || diag != "" {
			t.Fatalf("compose: %q", diag)
		}
		if got := c.(*program).entries; len(got) != 2 || got[0] != 0 || got[1] != 1 {
			t.Errorf("entries = %v, want [0 1]", got)
		}
	})

	t.Run("explicit order and duplicates", func(t *testing.T) {
		c, diag := s.CreateCompositeComponentType([]toolchain.ComponentType{m, fs, vs, fs})
		if c == nil {
			t.Fatalf("compose: %q", diag)
		}
		if !strings.Contains(diag, `duplicate entry point "fs_main"`) {
			t.Errorf("diagnostics = %q", diag)
		}
		layout, _ := c.Layout(0)
		if layout.EntryPointCount() != 2 ||
			layout.EntryPointByIndex(0).Name != "fs_main" ||
			layout.EntryPointByIndex(1).Name != "vs_main" {
			t.Errorf("layout entry points in wrong order")
		}
	})

	t.Run("empty", func(t *testing.T) {
		c, _ := s.CreateCompositeComponentType(nil)
		if c == nil {
			t.Fatal("empty composition failed")
		}
		linked, diag := c.Link()
		if linked == nil {
			t.Fatalf("link empty: %s", diag)
		}
		layout, _ := linked.Layout(0)
		if layout.EntryPointCount() != 0 {
			t.Errorf("EntryPointCount() = %d, want 0", layout.EntryPointCount())
		}
		if code, diag := linked.TargetCode(0); code != nil || diag == "" {
			t.Error("empty program produced code")
		}
	})

	t.Run("two modules", func(t *testing.T) {
		other := mustLoad(t, s, "compute", computeSource)
		c, diag := s.CreateCompositeComponentType([]toolchain.ComponentType{m, other})
		if c != nil {
			t.Fatal("modules from different sources composed")
		}
		if !strings.Contains(diag, "do not share declarations") {
			t.Errorf("diagnostics = %q", diag)
		}
	})

	t.Run("linked program", func(t *testing.T) {
		linked, _ := m.Link()
		c, diag := s.CreateCompositeComponentType([]toolchain.ComponentType{linked})
		if c != nil || diag == "" {
			t.Error("linked program was composed again")
		}
	})
}

func TestComputeLayout(t *testing.T) {
	s := newSession(t, Toolchain{}, toolchain.SessionDesc{})
	linked, diag := mustLoad(t, s, "compute", computeSource).Link()
	if linked == nil {
		t.Fatalf("Link: %s", diag)
	}
	layout, diag := linked.Layout(0)
	if layout == nil {
		t.Fatalf("Layout: %s", diag)
	}
	if layout.EntryPointCount() != 1 {
		t.Fatalf("EntryPointCount() = %d", layout.EntryPointCount())
	}
	ep := layout.EntryPointByIndex(0)
	if ep.Name != "main" || ep.Stage != toolchain.StageCompute {
		t.Errorf("entry point = %s %s", ep.Name, ep.Stage)
	}

	params := ep.Var.Type
	if params.FieldCount() != 3 {
		t.Fatalf("FieldCount() = %d, want id, params and data", params.FieldCount())
	}
	id, p, data := params.FieldByIndex(0), params.FieldByIndex(1), params.FieldByIndex(2)

	if id.Name != "id" || id.Type.KindOf() != toolchain.KindVector || id.Type.CategoryByIndex(0) != toolchain.CategoryVaryingInput {
		t.Errorf("id = %+v", id)
	}

	if p.Name != "params" || p.Type.KindOf() != toolchain.KindStruct {
		t.Fatalf("params = %+v", p)
	}
	if p.Offset(toolchain.CategoryDescriptorTableSlot) != 0 || !p.Has(toolchain.CategoryConstantBuffer) {
		t.Errorf("params offsets = %v", p.Offsets)
	}
	if p.Type.Size(toolchain.CategoryUniform) != 32 {
		t.Errorf("params size = %d, want 32", p.Type.Size(toolchain.CategoryUniform))
	}
	scale, bias := p.Type.FieldByIndex(0), p.Type.FieldByIndex(1)
	if scale.Offset(toolchain.CategoryUniform) != 0 || bias.Offset(toolchain.CategoryUniform) != 16 {
		t.Errorf("offsets = %d, %d; want 0, 16",
			scale.Offset(toolchain.CategoryUniform), bias.Offset(toolchain.CategoryUniform))
	}
	if scale.Type.Type.ElementCount != 3 || scale.Type.Type.ElementType().ScalarType() != toolchain.ScalarFloat32 {
		t.Errorf("scale type = %+v", scale.Type.Type)
	}

	if data.Name != "data" || data.Type.KindOf() != toolchain.KindArray {
		t.Errorf("data = %+v", data)
	}
	if !data.Has(toolchain.CategoryUnorderedAccess) || data.Offset(toolchain.CategoryDescriptorTableSlot) != 1 {
		t.Errorf("data offsets = %v", data.Offsets)
	}
}

func TestRenderLayout(t *testing.T) {
	s := newSession(t, Toolchain{}, toolchain.SessionDesc{})
	layout, diag := mustLoad(t, s, "render", renderSource).Layout(0)
	if layout == nil {
		t.Fatalf("Layout: %s", diag)
	}

	vs := layout.EntryPointByIndex(0).Var.Type
	if vs.FieldCount() != 2 {
		t.Fatalf("vs_main FieldCount() = %d, want vert and camera", vs.FieldCount())
	}
	input := vs.FieldByIndex(0)
	if input.Type.CategoryByIndex(0) != toolchain.CategoryVaryingInput || input.Type.Size(toolchain.CategoryVaryingInput) != 2 {
		t.Errorf("input layout = %+v", input.Type)
	}
	if uv := input.Type.FieldByIndex(1); uv.Name != "uv" || uv.Offset(toolchain.CategoryVaryingInput) != 1 {
		t.Errorf("uv = %+v", uv)
	}

	camera := vs.FieldByIndex(1)
	if camera.Offset(toolchain.CategoryRegisterSpace) != 1 || camera.Offset(toolchain.CategoryDescriptorTableSlot) != 2 {
		t.Errorf("camera binding = %v", camera.Offsets)
	}
	if tint := camera.Type.FieldByIndex(1); tint.Offset(toolchain.CategoryUniform) != 64 {
		t.Errorf("tint offset = %d, want 64", tint.Offset(toolchain.CategoryUniform))
	}
	if vp := camera.Type.FieldByIndex(0); vp.Type.KindOf() != toolchain.KindMatrix {
		t.Errorf("view_proj kind = %s", vp.Type.KindOf())
	}

	if fs := layout.EntryPointByIndex(1).Var.Type; fs.FieldCount() != 0 {
		t.Errorf("fs_main has %d parameters, want 0", fs.FieldCount())
	}
}

func TestLayoutTargetRange(t *testing.T) {
	s := newSession(t, Toolchain{}, toolchain.SessionDesc{})
	m := mustLoad(t, s, "compute", computeSource)
	if layout, diag := m.Layout(1); layout != nil || !strings.Contains(diag, "out of range") {
		t.Errorf("Layout(1) = %v, %q", layout, diag)
	}
	if code, diag := m.TargetCode(-1); code != nil || diag == "" {
		t.Errorf("TargetCode(-1) = %v, %q", code, diag)
	}
}

func TestTargetCode(t *testing.T) {
	tests := []struct {
		target toolchain.TargetDesc
		check  func([]byte) bool
	}{
		{toolchain.TargetDesc{Format: toolchain.FormatSPIRV, Profile: "spirv_1_0"}, func(b []byte) bool {
			return bytes.HasPrefix(b, []byte{0x03, 0x02, 0x23, 0x07})
		}},
		{toolchain.TargetDesc{Format: toolchain.FormatGLSL, Profile: "glsl_430"}, func(b []byte) bool {
			return bytes.Contains(b, []byte("#version 430"))
		}},
		{toolchain.TargetDesc{Format: toolchain.FormatMSL}, func(b []byte) bool { return len(b) > 0 }},
		{toolchain.TargetDesc{Format: toolchain.FormatHLSL}, func(b []byte) bool { return len(b) > 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.target.Format.String(), func(t *testing.T) {
			s := newSession(t, Toolchain{}, toolchain.SessionDesc{Targets: []toolchain.TargetDesc{tt.target}})
			linked, diag := mustLoad(t, s, "compute", computeSource).Link()
			if linked == nil {
				t.Fatalf("Link: %s", diag)
			}
			code, diag := linked.TargetCode(0)
			if diag != "" {
				t.Fatalf("TargetCode: %s", diag)
			}
			if !tt.check(code) {
				t.Errorf("unexpected %s output (%d bytes)", tt.target.Format, len(code))
			}
		})
	}
}

func TestEntryPointProgramSelectsOne(t *testing.T) {
	s := newSession(t, Toolchain{}, toolchain.SessionDesc{})
	m := mustLoad(t, s, "render", renderSource)
	linked, diag := m.FindEntryPointByName("fs_main").Link()
	if linked == nil {
		t.Fatalf("Link: %s", diag)
	}
	layout, _ := linked.Layout(0)
	if layout.EntryPointCount() != 1 || layout.EntryPointByIndex(0).Name != "fs_main" {
		t.Errorf("linked entry point program has the wrong entry points")
	}
	if len(m.ir.EntryPoints) != 2 {
		t.Error("linking an entry point modified the shared module")
	}
}

func TestStorageAccess(t *testing.T) {
	const src = `
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage> lut: array<f32>;
@group(0) @binding(2) var<storage, read_write> dst: array<f32>;

@compute @workgroup_size(1)
fn main() {
    dst[0] = src[0] + lut[0];
}
`
	s := newSession(t, Toolchain{}, toolchain.SessionDesc{})
	layout, diag := mustLoad(t, s, "access", src).Layout(0)
	if layout == nil {
		t.Fatalf("Layout: %s", diag)
	}
	params := layout.EntryPointByIndex(0).Var.Type
	if params.FieldCount() != 3 {
		t.Fatalf("FieldCount() = %d, want 3", params.FieldCount())
	}

	tests := []struct {
		name string
		want toolchain.Category
	}{
		{"src", toolchain.CategoryShaderResource},
		{"lut", toolchain.CategoryShaderResource},
		{"dst", toolchain.CategoryUnorderedAccess},
	}
	for i, tt := range tests {
		f := params.FieldByIndex(i)
		if f.Name != tt.name {
			t.Errorf("field %d = %s, want %s", i, f.Name, tt.name)
			continue
		}
		if !f.Has(tt.want) {
			t.Errorf("%s offsets = %v, want %s", tt.name, f.Offsets, tt.want)
		}
	}
}

func TestVaryingInputSkipsBuiltins(t *testing.T) {
	const src = `
struct VertexIn {
    @builtin(vertex_index) index: u32,
    @location(0) position: vec3<f32>,
    @builtin(instance_index) instance: u32,
    @location(1) uv: vec2<f32>,
}

@vertex
fn vs_main(in: VertexIn) -> @builtin(position) vec4<f32> {
    return vec4<f32>(in.position, in.uv.x + f32(in.index + in.instance));
}
`
	s := newSession(t, Toolchain{}, toolchain.SessionDesc{})
	layout, diag := mustLoad(t, s, "builtins", src).Layout(0)
	if layout == nil {
		t.Fatalf("Layout: %s", diag)
	}
	in := layout.EntryPointByIndex(0).Var.Type.FieldByIndex(0).Type
	if in.FieldCount() != 2 {
		t.Fatalf("FieldCount() = %d, want position and uv only", in.FieldCount())
	}
	if got := in.Size(toolchain.CategoryVaryingInput); got != 2 {
		t.Errorf("varying size = %d, want 2", got)
	}
	for i, want := range []struct {
		name     string
		location uint64
	}{{"position", 0}, {"uv", 1}} {
		f := in.FieldByIndex(i)
		if f.Name != want.name || !f.Has(toolchain.CategoryVaryingInput) || f.Offset(toolchain.CategoryVaryingInput) != want.location {
			t.Errorf("field %d = %s %v, want %s at location %d", i, f.Name, f.Offsets, want.name, want.location)
		}
	}
}

func TestComposedProgramConcurrentUse(t *testing.T) {
	s := newSession(t, Toolchain{}, toolchain.SessionDesc{})
	m := mustLoad(t, s, "render", renderSource)
	c, diag := s.CreateCompositeComponentType([]toolchain.ComponentType{m.FindEntryPointByName("vs_main")})
	if c == nil {
		t.Fatalf("compose: %q", diag)
	}
	p := c.(*program)
	if p.ir == nil || len(p.ir.EntryPoints) != 1 || p.ir.EntryPoints[0].Name != "vs_main" {
		t.Fatalf("composed IR not restricted at compose time: %+v", p.ir)
	}
	if len(m.ir.EntryPoints) != 2 {
		t.Fatalf("source module lost entry points: %d", len(m.ir.EntryPoints))
	}

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if layout, diag := c.Layout(0); layout == nil || layout.EntryPointCount() != 1 {
				errs <- "Layout: " + diag
			}
		}()
		go func() {
			defer wg.Done()
			if code, diag := c.TargetCode(0); len(code) == 0 {
				errs <- "TargetCode: " + diag
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}
