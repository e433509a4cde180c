package shaderbuild

import (
	"fmt"
	"strings"

	"github.com/gogpu/shaderbuild/toolchain"
)

// Stage is the shader stage of a reflected entry point.
type Stage uint8

const (
	StageNone Stage = iota
	StageVertex
	StageFragment
	StageCompute
)

var stageNames = [...]string{
	StageNone:     "none",
	StageVertex:   "vertex",
	StageFragment: "fragment",
	StageCompute:  "compute",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	i, err := parseName(stageNames[:], text)
	if err != nil {
		return fmt.Errorf("shaderbuild: stage: %w", err)
	}
	*s = Stage(i)
	return nil
}

// stageOf maps toolchain stages onto the four reflected stages. Every
// other stage is StageNone.
func stageOf(s toolchain.Stage) Stage {
	switch s {
	case toolchain.StageVertex:
		return StageVertex
	case toolchain.StageFragment:
		return StageFragment
	case toolchain.StageCompute:
		return StageCompute
	default:
		return StageNone
	}
}

// FieldType is the resolved element type of a reflected field.
type FieldType uint8

const (
	FieldUndefined FieldType = iota
	FieldFloat2
	FieldFloat3
	FieldFloat4
)

var fieldTypeNames = [...]string{
	FieldUndefined: "undefined",
	FieldFloat2:    "float2",
	FieldFloat3:    "float3",
	FieldFloat4:    "float4",
}

func (t FieldType) String() string {
	if int(t) < len(fieldTypeNames) {
		return fieldTypeNames[t]
	}
	return fmt.Sprintf("FieldType(%d)", uint8(t))
}

// Components returns the number of vector components, 0 for Undefined.
func (t FieldType) Components() int {
	switch t {
	case FieldFloat2:
		return 2
	case FieldFloat3:
		return 3
	case FieldFloat4:
		return 4
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t FieldType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *FieldType) UnmarshalText(text []byte) error {
	i, err := parseName(fieldTypeNames[:], text)
	if err != nil {
		return fmt.Errorf("shaderbuild: field type: %w", err)
	}
	*t = FieldType(i)
	return nil
}

// BlockKind tells how a parameter block is bound.
type BlockKind uint8

const (
	BlockUnknown BlockKind = iota
	BlockUniform
	BlockStorage
	BlockReadOnlyStorage
	BlockPushConstant
	BlockVarying
)

var blockKindNames = [...]string{
	BlockUnknown:         "unknown",
	BlockUniform:         "uniform",
	BlockStorage:         "storage",
	BlockReadOnlyStorage: "read_only_storage",
	BlockPushConstant:    "push_constant",
	BlockVarying:         "varying",
}

func (k BlockKind) String() string {
	if int(k) < len(blockKindNames) {
		return blockKindNames[k]
	}
	return fmt.Sprintf("BlockKind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k BlockKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *BlockKind) UnmarshalText(text []byte) error {
	i, err := parseName(blockKindNames[:], text)
	if err != nil {
		return fmt.Errorf("shaderbuild: block kind: %w", err)
	}
	*k = BlockKind(i)
	return nil
}

func parseName(names []string, text []byte) (int, error) {
	s := strings.ToLower(string(text))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown name %q", text)
}

// ResourceBinding is the descriptor slot of a buffer-backed block.
type ResourceBinding struct {
	Group   uint32 `yaml:"group" json:"group" msgpack:"group"`
	Binding uint32 `yaml:"binding" json:"binding" msgpack:"binding"`
}

// FieldReflection is one member of a parameter block.
type FieldReflection struct {
	Name string `yaml:"name" json:"name" msgpack:"name"`
	// Offset is absolute within the parameter block, in the toolchain's
	// layout unit for the field.
	Offset uint64    `yaml:"offset" json:"offset" msgpack:"offset"`
	Type   FieldType `yaml:"type" json:"type" msgpack:"type"`
}

// ParameterBlockReflection is a struct-typed top-level parameter.
type ParameterBlockReflection struct {
	Name string `yaml:"name" json:"name" msgpack:"name"`
	// BindingIndex is the position of the parameter among all top-level
	// parameters of the entry point, counting skipped ones.
	BindingIndex uint32            `yaml:"binding_index" json:"binding_index" msgpack:"binding_index"`
	Fields       []FieldReflection `yaml:"fields" json:"fields" msgpack:"fields"`

	Kind     BlockKind        `yaml:"kind" json:"kind" msgpack:"kind"`
	Resource *ResourceBinding `yaml:"resource,omitempty" json:"resource,omitempty" msgpack:"resource,omitempty"`
	// Size is the block size in bytes, 0 when the toolchain reports none.
	Size uint64 `yaml:"size,omitempty" json:"size,omitempty" msgpack:"size,omitempty"`
}

// Field returns the field with the given name.
func (b *ParameterBlockReflection) Field(name string) (FieldReflection, bool) {
	for _, f := range b.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldReflection{}, false
}

// EntryPointReflection describes one entry point.
type EntryPointReflection struct {
	Name            string                     `yaml:"name" json:"name" msgpack:"name"`
	Stage           Stage                      `yaml:"stage" json:"stage" msgpack:"stage"`
	ParameterBlocks []ParameterBlockReflection `yaml:"parameter_blocks" json:"parameter_blocks" msgpack:"parameter_blocks"`
}

// ParameterBlock returns the block with the given name.
func (e *EntryPointReflection) ParameterBlock(name string) (*ParameterBlockReflection, bool) {
	for i := range e.ParameterBlocks {
		if e.ParameterBlocks[i].Name == name {
			return &e.ParameterBlocks[i], true
		}
	}
	return nil, false
}

// ProgramReflection describes every entry point of a program in index
// order.
type ProgramReflection struct {
	EntryPoints []EntryPointReflection `yaml:"entry_points" json:"entry_points" msgpack:"entry_points"`
	// Diagnostics holds toolchain output from layout retrieval.
	Diagnostics string `yaml:"diagnostics,omitempty" json:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
}

// EntryPoint returns the entry point with the given name.
func (p *ProgramReflection) EntryPoint(name string) (*EntryPointReflection, bool) {
	for i := range p.EntryPoints {
		if p.EntryPoints[i].Name == name {
			return &p.EntryPoints[i], true
		}
	}
	return nil, false
}
