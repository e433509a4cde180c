package shaderbuild

import (
	"log/slog"

	"fortio.org/safecast"

	"github.com/gogpu/shaderbuild/toolchain"
)

// reflector flattens a toolchain layout into a ProgramReflection.
//
// Only struct-typed top-level parameters become parameter blocks, and only
// one level of struct members is read. Everything else is skipped or left
// Undefined; nothing here fails once a layout exists.
type reflector struct {
	log *slog.Logger
}

func (r reflector) program(layout *toolchain.ProgramLayout) *ProgramReflection {
	n := layout.EntryPointCount()
	prog := &ProgramReflection{EntryPoints: make([]EntryPointReflection, 0, n)}
	for i := 0; i < n; i++ {
		prog.EntryPoints = append(prog.EntryPoints, r.entryPoint(layout.EntryPointByIndex(i)))
	}
	return prog
}

func (r reflector) entryPoint(ep *toolchain.EntryPointLayout) EntryPointReflection {
	refl := EntryPointReflection{ParameterBlocks: []ParameterBlockReflection{}}
	if ep == nil {
		return refl
	}
	refl.Name = ep.Name
	refl.Stage = stageOf(ep.Stage)

	var params *toolchain.TypeLayout
	if ep.Var != nil {
		params = ep.Var.Type
	}
	if params.KindOf() != toolchain.KindStruct {
		r.log.Debug("shaderbuild: entry point parameters are not a struct",
			"entry_point", ep.Name, "kind", params.KindOf())
		return refl
	}

	for j := 0; j < params.FieldCount(); j++ {
		param := params.FieldByIndex(j)
		if param == nil {
			continue
		}
		if param.Type.KindOf() != toolchain.KindStruct {
			r.log.Debug("shaderbuild: skipping misc parameter",
				"entry_point", ep.Name, "parameter", param.Name, "kind", param.Type.KindOf())
			continue
		}
		block, ok := r.parameterBlock(ep.Name, param, j)
		if ok {
			refl.ParameterBlocks = append(refl.ParameterBlocks, block)
		}
	}
	return refl
}

func (r reflector) parameterBlock(entry string, param *toolchain.VarLayout, index int) (ParameterBlockReflection, bool) {
	binding, err := safecast.Conv[uint32](index)
	if err != nil {
		r.log.Warn("shaderbuild: parameter index out of range",
			"entry_point", entry, "parameter", param.Name, "index", index)
		return ParameterBlockReflection{}, false
	}

	layout := param.Type
	unit := layout.CategoryByIndex(0)
	base := param.Offset(unit)

	block := ParameterBlockReflection{
		Name:         param.Name,
		BindingIndex: binding,
		Fields:       make([]FieldReflection, 0, layout.FieldCount()),
		Kind:         blockKindOf(param, unit),
		Resource:     r.resourceOf(param),
		Size:         layout.Size(toolchain.CategoryUniform),
	}

	for k := 0; k < layout.FieldCount(); k++ {
		field := layout.FieldByIndex(k)
		if field == nil {
			continue
		}
		if field.Type.KindOf() == toolchain.KindStruct {
			r.log.Debug("shaderbuild: skipping nested struct field",
				"entry_point", entry, "parameter", param.Name, "field", field.Name)
			continue
		}
		offset := field.Offset(field.Type.CategoryByIndex(0))
		block.Fields = append(block.Fields, FieldReflection{
			Name:   field.Name,
			Offset: offset + base,
			Type:   fieldTypeOf(field.Type),
		})
	}
	return block, true
}

// fieldTypeOf resolves float32 vectors of length 2 to 4. Every other
// layout is FieldUndefined.
func fieldTypeOf(layout *toolchain.TypeLayout) FieldType {
	if layout.KindOf() != toolchain.KindVector || layout.Type == nil {
		return FieldUndefined
	}
	if layout.Type.ElementType().ScalarType() != toolchain.ScalarFloat32 {
		return FieldUndefined
	}
	switch layout.Type.ElementCount {
	case 2:
		return FieldFloat2
	case 3:
		return FieldFloat3
	case 4:
		return FieldFloat4
	default:
		return FieldUndefined
	}
}

func blockKindOf(param *toolchain.VarLayout, unit toolchain.Category) BlockKind {
	switch {
	case param.Has(toolchain.CategoryPushConstantBuffer):
		return BlockPushConstant
	case param.Has(toolchain.CategoryUnorderedAccess):
		return BlockStorage
	case param.Has(toolchain.CategoryShaderResource):
		return BlockReadOnlyStorage
	case param.Has(toolchain.CategoryConstantBuffer):
		return BlockUniform
	}
	switch unit {
	case toolchain.CategoryVaryingInput, toolchain.CategoryVaryingOutput:
		return BlockVarying
	case toolchain.CategoryUniform:
		return BlockUniform
	default:
		return BlockUnknown
	}
}

func (r reflector) resourceOf(param *toolchain.VarLayout) *ResourceBinding {
	if !param.Has(toolchain.CategoryDescriptorTableSlot) {
		return nil
	}
	group, err := safecast.Conv[uint32](param.Offset(toolchain.CategoryRegisterSpace))
	if err != nil {
		r.log.Warn("shaderbuild: register space out of range", "parameter", param.Name)
		return nil
	}
	binding, err := safecast.Conv[uint32](param.Offset(toolchain.CategoryDescriptorTableSlot))
	if err != nil {
		r.log.Warn("shaderbuild: descriptor slot out of range", "parameter", param.Name)
		return nil
	}
	return &ResourceBinding{Group: group, Binding: binding}
}
