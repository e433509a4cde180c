package wgsl

import (
	"sort"

	"github.com/gogpu/naga/ir"

	"github.com/gogpu/shaderbuild/toolchain"
)

type layoutBuilder struct {
	mod *ir.Module
}

func buildLayout(mod *ir.Module) *toolchain.ProgramLayout {
	b := layoutBuilder{mod: mod}
	out := &toolchain.ProgramLayout{
		EntryPoints: make([]*toolchain.EntryPointLayout, 0, len(mod.EntryPoints)),
	}
	for _, ep := range mod.EntryPoints {
		out.EntryPoints = append(out.EntryPoints, b.entryPoint(ep))
	}
	return out
}

// entryPoint lays out the parameters of ep: its arguments as varying
// inputs, then the resource globals it reaches in declaration order.
func (b layoutBuilder) entryPoint(ep ir.EntryPoint) *toolchain.EntryPointLayout {
	params := &toolchain.TypeLayout{
		Kind: toolchain.KindStruct,
		Type: &toolchain.TypeReflection{Kind: toolchain.KindStruct, Name: ep.Name},
	}
	for _, arg := range ep.Function.Arguments {
		params.Fields = append(params.Fields, b.argument(arg))
	}
	for _, h := range reachableGlobals(b.mod, &ep.Function) {
		if v := b.resource(h); v != nil {
			params.Fields = append(params.Fields, v)
		}
	}
	return &toolchain.EntryPointLayout{
		Name:  ep.Name,
		Stage: stageOf(ep.Stage),
		Var:   &toolchain.VarLayout{Name: ep.Name, Type: params},
	}
}

func (b layoutBuilder) argument(arg ir.FunctionArgument) *toolchain.VarLayout {
	v := &toolchain.VarLayout{
		Name:    arg.Name,
		Type:    b.typeLayout(arg.Type, toolchain.CategoryVaryingInput),
		Offsets: map[toolchain.Category]uint64{},
	}
	if loc, ok := location(arg.Binding); ok {
		v.Offsets[toolchain.CategoryVaryingInput] = uint64(loc)
	}
	return v
}

// resource lays out a bound global. Globals in the private and workgroup
// address spaces are not parameters and yield nil.
func (b layoutBuilder) resource(h ir.GlobalVariableHandle) *toolchain.VarLayout {
	if int(h) >= len(b.mod.GlobalVariables) {
		return nil
	}
	gv := b.mod.GlobalVariables[h]
	if gv.Binding == nil && gv.Space != ir.SpacePushConstant {
		return nil
	}
	var slot, group uint64
	if gv.Binding != nil {
		slot, group = uint64(gv.Binding.Binding), uint64(gv.Binding.Group)
	}

	offsets := map[toolchain.Category]uint64{}
	unit := toolchain.CategoryUniform
	switch gv.Space {
	case ir.SpaceUniform:
		offsets[toolchain.CategoryConstantBuffer] = slot
	case ir.SpaceStorage:
		if gv.Access == ir.StorageRead {
			offsets[toolchain.CategoryShaderResource] = slot
		} else {
			offsets[toolchain.CategoryUnorderedAccess] = slot
		}
	case ir.SpacePushConstant:
		offsets[toolchain.CategoryPushConstantBuffer] = 0
	case ir.SpaceHandle:
		unit = toolchain.CategoryDescriptorTableSlot
	default:
		return nil
	}
	if gv.Binding != nil {
		offsets[toolchain.CategoryDescriptorTableSlot] = slot
		offsets[toolchain.CategoryRegisterSpace] = group
	}
	return &toolchain.VarLayout{
		Name:    gv.Name,
		Type:    b.typeLayout(gv.Type, unit),
		Offsets: offsets,
	}
}

// typeLayout lays out type h in the given unit category. In the uniform
// category struct fields carry byte offsets; in the varying category they
// carry locations.
func (b layoutBuilder) typeLayout(h ir.TypeHandle, unit toolchain.Category) *toolchain.TypeLayout {
	tr := b.typeReflection(h)
	tl := &toolchain.TypeLayout{
		Kind:       tr.Kind,
		Type:       tr,
		Categories: []toolchain.Category{unit},
		Sizes:      map[toolchain.Category]uint64{},
	}
	st, ok := b.inner(h).(ir.StructType)
	if !ok {
		if unit == toolchain.CategoryVaryingInput {
			tl.Sizes[unit] = 1
		}
		return tl
	}

	var locations uint64
	for _, m := range st.Members {
		// Built-ins are supplied by the pipeline, not by vertex buffers.
		if unit == toolchain.CategoryVaryingInput && isBuiltin(m.Binding) {
			continue
		}
		f := &toolchain.VarLayout{
			Name:    m.Name,
			Type:    b.typeLayout(m.Type, unit),
			Offsets: map[toolchain.Category]uint64{},
		}
		switch unit {
		case toolchain.CategoryUniform:
			f.Offsets[unit] = uint64(m.Offset)
		case toolchain.CategoryVaryingInput:
			if loc, ok := location(m.Binding); ok {
				f.Offsets[unit] = uint64(loc)
				locations++
			}
		}
		tl.Fields = append(tl.Fields, f)
	}
	switch unit {
	case toolchain.CategoryUniform:
		tl.Sizes[unit] = uint64(st.Span)
	case toolchain.CategoryVaryingInput:
		tl.Sizes[unit] = locations
	}
	return tl
}

func (b layoutBuilder) inner(h ir.TypeHandle) ir.TypeInner {
	if int(h) >= len(b.mod.Types) {
		return nil
	}
	return b.mod.Types[h].Inner
}

func (b layoutBuilder) typeReflection(h ir.TypeHandle) *toolchain.TypeReflection {
	name := ""
	if int(h) < len(b.mod.Types) {
		name = b.mod.Types[h].Name
	}
	switch t := b.inner(h).(type) {
	case ir.ScalarType:
		return &toolchain.TypeReflection{Kind: toolchain.KindScalar, Name: name, Scalar: scalarOf(t)}
	case ir.AtomicType:
		return &toolchain.TypeReflection{Kind: toolchain.KindScalar, Name: name, Scalar: scalarOf(t.Scalar)}
	case ir.VectorType:
		return &toolchain.TypeReflection{
			Kind:         toolchain.KindVector,
			Name:         name,
			ElementCount: int(t.Size),
			Element:      scalarReflection(t.Scalar),
		}
	case ir.MatrixType:
		return &toolchain.TypeReflection{
			Kind:         toolchain.KindMatrix,
			Name:         name,
			ElementCount: int(t.Columns),
			Element: &toolchain.TypeReflection{
				Kind:         toolchain.KindVector,
				ElementCount: int(t.Rows),
				Element:      scalarReflection(t.Scalar),
			},
		}
	case ir.ArrayType:
		count := 0
		if t.Size.Constant != nil {
			count = int(*t.Size.Constant)
		}
		return &toolchain.TypeReflection{
			Kind:         toolchain.KindArray,
			Name:         name,
			ElementCount: count,
			Element:      b.typeReflection(t.Base),
		}
	case ir.StructType:
		return &toolchain.TypeReflection{Kind: toolchain.KindStruct, Name: name}
	case ir.PointerType:
		return &toolchain.TypeReflection{Kind: toolchain.KindPointer, Name: name, Element: b.typeReflection(t.Base)}
	case ir.ImageType:
		return &toolchain.TypeReflection{Kind: toolchain.KindResource, Name: name}
	case ir.SamplerType:
		return &toolchain.TypeReflection{Kind: toolchain.KindSamplerState, Name: name}
	default:
		return &toolchain.TypeReflection{Kind: toolchain.KindNone, Name: name}
	}
}

func scalarReflection(s ir.ScalarType) *toolchain.TypeReflection {
	return &toolchain.TypeReflection{Kind: toolchain.KindScalar, Scalar: scalarOf(s)}
}

func scalarOf(s ir.ScalarType) toolchain.ScalarType {
	switch s.Kind {
	case ir.ScalarBool:
		return toolchain.ScalarBool
	case ir.ScalarFloat:
		switch s.Width {
		case 2:
			return toolchain.ScalarFloat16
		case 4:
			return toolchain.ScalarFloat32
		case 8:
			return toolchain.ScalarFloat64
		}
	case ir.ScalarSint:
		switch s.Width {
		case 1:
			return toolchain.ScalarInt8
		case 2:
			return toolchain.ScalarInt16
		case 4:
			return toolchain.ScalarInt32
		case 8:
			return toolchain.ScalarInt64
		}
	case ir.ScalarUint:
		switch s.Width {
		case 1:
			return toolchain.ScalarUInt8
		case 2:
			return toolchain.ScalarUInt16
		case 4:
			return toolchain.ScalarUInt32
		case 8:
			return toolchain.ScalarUInt64
		}
	}
	return toolchain.ScalarNone
}

func location(b *ir.Binding) (uint32, bool) {
	if b == nil {
		return 0, false
	}
	loc, ok := (*b).(ir.LocationBinding)
	return loc.Location, ok
}

func isBuiltin(b *ir.Binding) bool {
	if b == nil {
		return false
	}
	_, ok := (*b).(ir.BuiltinBinding)
	return ok
}

// reachableGlobals returns the globals referenced by the entry function
// and every function it calls, in declaration order.
func reachableGlobals(mod *ir.Module, entry *ir.Function) []ir.GlobalVariableHandle {
	used := make(map[ir.GlobalVariableHandle]bool)
	visited := make(map[ir.FunctionHandle]bool)

	var scan func(fn *ir.Function)
	visit := func(h ir.FunctionHandle) {
		if visited[h] || int(h) >= len(mod.Functions) {
			return
		}
		visited[h] = true
		scan(&mod.Functions[h])
	}
	scan = func(fn *ir.Function) {
		for _, e := range fn.Expressions {
			if g, ok := e.Kind.(ir.ExprGlobalVariable); ok {
				used[g.Variable] = true
			}
		}
		walkCalls(fn.Body, visit)
	}
	scan(entry)

	out := make([]ir.GlobalVariableHandle, 0, len(used))
	for h := range used {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func walkCalls(block ir.Block, visit func(ir.FunctionHandle)) {
	for _, st := range block {
		switch k := st.Kind.(type) {
		case ir.StmtCall:
			visit(k.Function)
		case ir.StmtBlock:
			walkCalls(k.Block, visit)
		case ir.StmtIf:
			walkCalls(k.Accept, visit)
			walkCalls(k.Reject, visit)
		case ir.StmtSwitch:
			for _, c := range k.Cases {
				walkCalls(c.Body, visit)
			}
		case ir.StmtLoop:
			walkCalls(k.Body, visit)
			walkCalls(k.Continuing, visit)
		}
	}
}
