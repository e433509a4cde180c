// Package binding turns build results into wgpu pipeline inputs: shader
// module descriptors from SPIR-V code, bind group layout entries from
// uniform and storage blocks, and vertex buffer layouts from varying
// input blocks.
package binding

import (
	"errors"
	"fmt"
	"sort"

	"fortio.org/safecast"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderbuild"
	"github.com/gogpu/shaderbuild/toolchain"
)

const spirvMagic = 0x07230203

var (
	// ErrNotSPIRV is returned when code handed to ShaderModuleDescriptor
	// is not a SPIR-V module.
	ErrNotSPIRV = errors.New("binding: code is not SPIR-V")

	// ErrNotVarying is returned by VertexBufferLayout for blocks that are
	// not varying inputs.
	ErrNotVarying = errors.New("binding: block is not a varying input")

	// ErrUnsupportedField is returned for vertex fields without a vertex
	// format.
	ErrUnsupportedField = errors.New("binding: field has no vertex format")
)

// ShaderModuleDescriptor wraps SPIR-V code for hal.Device.CreateShaderModule.
func ShaderModuleDescriptor(label string, code *shaderbuild.ByteCode) (*hal.ShaderModuleDescriptor, error) {
	if code.Format() != toolchain.FormatSPIRV {
		return nil, fmt.Errorf("%w: %s: format %s", ErrNotSPIRV, label, code.Format())
	}
	words, err := code.Words()
	if err != nil {
		return nil, fmt.Errorf("binding: %s: %w", label, err)
	}
	if len(words) == 0 || words[0] != spirvMagic {
		return nil, fmt.Errorf("%w: %s: bad magic number", ErrNotSPIRV, label)
	}
	return &hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: words},
	}, nil
}

func visibility(s shaderbuild.Stage) gputypes.ShaderStages {
	switch s {
	case shaderbuild.StageVertex:
		return gputypes.ShaderStageVertex
	case shaderbuild.StageFragment:
		return gputypes.ShaderStageFragment
	case shaderbuild.StageCompute:
		return gputypes.ShaderStageCompute
	default:
		return 0
	}
}

func bufferType(k shaderbuild.BlockKind) (gputypes.BufferBindingType, bool) {
	switch k {
	case shaderbuild.BlockUniform:
		return gputypes.BufferBindingTypeUniform, true
	case shaderbuild.BlockStorage:
		return gputypes.BufferBindingTypeStorage, true
	case shaderbuild.BlockReadOnlyStorage:
		return gputypes.BufferBindingTypeReadOnlyStorage, true
	default:
		return 0, false
	}
}

// BindGroupLayoutEntries returns the buffer bindings of group used by one
// entry point, ordered by binding number. Blocks without a descriptor
// slot, and push constant or varying blocks, are not bindings.
func BindGroupLayoutEntries(ep shaderbuild.EntryPointReflection, group uint32) []gputypes.BindGroupLayoutEntry {
	var entries []gputypes.BindGroupLayoutEntry
	for _, b := range ep.ParameterBlocks {
		if b.Resource == nil || b.Resource.Group != group {
			continue
		}
		typ, ok := bufferType(b.Kind)
		if !ok {
			continue
		}
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    b.Resource.Binding,
			Visibility: visibility(ep.Stage),
			Buffer: &gputypes.BufferBindingLayout{
				Type:           typ,
				MinBindingSize: b.Size,
			},
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
	return entries
}

// ProgramBindGroupLayoutEntries merges the group's bindings across every
// entry point of prog. A binding used by several stages is visible to all
// of them; its minimum size is the largest any stage needs.
func ProgramBindGroupLayoutEntries(prog *shaderbuild.ProgramReflection, group uint32) []gputypes.BindGroupLayoutEntry {
	byBinding := make(map[uint32]*gputypes.BindGroupLayoutEntry)
	var order []uint32
	for _, ep := range prog.EntryPoints {
		for _, e := range BindGroupLayoutEntries(ep, group) {
			prev, ok := byBinding[e.Binding]
			if !ok {
				entry := e
				byBinding[e.Binding] = &entry
				order = append(order, e.Binding)
				continue
			}
			prev.Visibility |= e.Visibility
			prev.Buffer.MinBindingSize = max(prev.Buffer.MinBindingSize, e.Buffer.MinBindingSize)
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([]gputypes.BindGroupLayoutEntry, 0, len(order))
	for _, b := range order {
		out = append(out, *byBinding[b])
	}
	return out
}

// VertexFormat returns the vertex format of a reflected field type.
func VertexFormat(t shaderbuild.FieldType) (gputypes.VertexFormat, bool) {
	switch t {
	case shaderbuild.FieldFloat2:
		return gputypes.VertexFormatFloat32x2, true
	case shaderbuild.FieldFloat3:
		return gputypes.VertexFormatFloat32x3, true
	case shaderbuild.FieldFloat4:
		return gputypes.VertexFormatFloat32x4, true
	default:
		return 0, false
	}
}

// VertexBufferLayout lays out a varying input block as one tightly packed
// per-vertex buffer. A field's offset in the block is its shader location;
// attributes are packed in location order.
func VertexBufferLayout(block shaderbuild.ParameterBlockReflection) (gputypes.VertexBufferLayout, error) {
	if block.Kind != shaderbuild.BlockVarying {
		return gputypes.VertexBufferLayout{}, fmt.Errorf("%w: %s is %s", ErrNotVarying, block.Name, block.Kind)
	}
	fields := append([]shaderbuild.FieldReflection(nil), block.Fields...)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Offset < fields[j].Offset })

	layout := gputypes.VertexBufferLayout{
		StepMode:   gputypes.VertexStepModeVertex,
		Attributes: make([]gputypes.VertexAttribute, 0, len(fields)),
	}
	for _, f := range fields {
		format, ok := VertexFormat(f.Type)
		if !ok {
			return gputypes.VertexBufferLayout{}, fmt.Errorf("%w: %s.%s", ErrUnsupportedField, block.Name, f.Name)
		}
		location, err := safecast.Conv[uint32](f.Offset)
		if err != nil {
			return gputypes.VertexBufferLayout{}, fmt.Errorf("binding: %s.%s: location %d: %w", block.Name, f.Name, f.Offset, err)
		}
		layout.Attributes = append(layout.Attributes, gputypes.VertexAttribute{
			Format:         format,
			Offset:         layout.ArrayStride,
			ShaderLocation: location,
		})
		layout.ArrayStride += format.Size()
	}
	return layout, nil
}
