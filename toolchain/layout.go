package toolchain

import "fmt"

// Stage is the pipeline stage of an entry point.
type Stage uint8

const (
	StageNone Stage = iota
	StageVertex
	StageHull
	StageDomain
	StageGeometry
	StageFragment
	StageCompute
	StageRayGeneration
	StageIntersection
	StageAnyHit
	StageClosestHit
	StageMiss
	StageCallable
	StageMesh
	StageAmplification
)

var stageNames = [...]string{
	StageNone:          "none",
	StageVertex:        "vertex",
	StageHull:          "hull",
	StageDomain:        "domain",
	StageGeometry:      "geometry",
	StageFragment:      "fragment",
	StageCompute:       "compute",
	StageRayGeneration: "raygeneration",
	StageIntersection:  "intersection",
	StageAnyHit:        "anyhit",
	StageClosestHit:    "closesthit",
	StageMiss:          "miss",
	StageCallable:      "callable",
	StageMesh:          "mesh",
	StageAmplification: "amplification",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// Kind classifies a type or type layout.
type Kind uint8

const (
	KindNone Kind = iota
	KindStruct
	KindArray
	KindMatrix
	KindVector
	KindScalar
	KindConstantBuffer
	KindResource
	KindSamplerState
	KindTextureBuffer
	KindShaderStorageBuffer
	KindParameterBlock
	KindPointer
)

var kindNames = [...]string{
	KindNone:                "none",
	KindStruct:              "struct",
	KindArray:               "array",
	KindMatrix:              "matrix",
	KindVector:              "vector",
	KindScalar:              "scalar",
	KindConstantBuffer:      "constant_buffer",
	KindResource:            "resource",
	KindSamplerState:        "sampler_state",
	KindTextureBuffer:       "texture_buffer",
	KindShaderStorageBuffer: "shader_storage_buffer",
	KindParameterBlock:      "parameter_block",
	KindPointer:             "pointer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ScalarType is the element type of scalars, vectors and matrices.
type ScalarType uint8

const (
	ScalarNone ScalarType = iota
	ScalarVoid
	ScalarBool
	ScalarInt32
	ScalarUInt32
	ScalarInt64
	ScalarUInt64
	ScalarFloat16
	ScalarFloat32
	ScalarFloat64
	ScalarInt8
	ScalarUInt8
	ScalarInt16
	ScalarUInt16
)

var scalarNames = [...]string{
	ScalarNone:    "none",
	ScalarVoid:    "void",
	ScalarBool:    "bool",
	ScalarInt32:   "int32",
	ScalarUInt32:  "uint32",
	ScalarInt64:   "int64",
	ScalarUInt64:  "uint64",
	ScalarFloat16: "float16",
	ScalarFloat32: "float32",
	ScalarFloat64: "float64",
	ScalarInt8:    "int8",
	ScalarUInt8:   "uint8",
	ScalarInt16:   "int16",
	ScalarUInt16:  "uint16",
}

func (s ScalarType) String() string {
	if int(s) < len(scalarNames) {
		return scalarNames[s]
	}
	return fmt.Sprintf("ScalarType(%d)", uint8(s))
}

// Category is the unit a layout offset or size is expressed in. Uniform
// is bytes; the slot categories count bindings or locations.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryMixed
	CategoryConstantBuffer
	CategoryShaderResource
	CategoryUnorderedAccess
	CategoryVaryingInput
	CategoryVaryingOutput
	CategorySamplerState
	CategoryUniform
	CategoryDescriptorTableSlot
	CategoryPushConstantBuffer
	CategoryRegisterSpace
)

var categoryNames = [...]string{
	CategoryNone:                "none",
	CategoryMixed:               "mixed",
	CategoryConstantBuffer:      "constant_buffer",
	CategoryShaderResource:      "shader_resource",
	CategoryUnorderedAccess:     "unordered_access",
	CategoryVaryingInput:        "varying_input",
	CategoryVaryingOutput:       "varying_output",
	CategorySamplerState:        "sampler_state",
	CategoryUniform:             "uniform",
	CategoryDescriptorTableSlot: "descriptor_table_slot",
	CategoryPushConstantBuffer:  "push_constant_buffer",
	CategoryRegisterSpace:       "register_space",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// TypeReflection describes a type independent of its layout.
type TypeReflection struct {
	Kind Kind
	Name string

	// ElementCount is the length of a vector or array. Runtime-sized
	// arrays report 0.
	ElementCount int

	// Element is the element type of vectors, matrices and arrays.
	Element *TypeReflection

	// Scalar is set for scalar types.
	Scalar ScalarType
}

// ElementType returns the element type, or nil.
func (t *TypeReflection) ElementType() *TypeReflection {
	if t == nil {
		return nil
	}
	return t.Element
}

// ScalarType returns the scalar type of a scalar, or ScalarNone.
func (t *TypeReflection) ScalarType() ScalarType {
	if t == nil {
		return ScalarNone
	}
	return t.Scalar
}

// TypeLayout is a type together with how it is laid out for a target.
type TypeLayout struct {
	Kind Kind
	Type *TypeReflection

	// Fields are the members of a struct, in declaration order.
	Fields []*VarLayout

	// Categories lists the units this layout consumes, most significant
	// first.
	Categories []Category

	// Sizes holds the size per category.
	Sizes map[Category]uint64
}

// KindOf returns the layout kind, or KindNone for a nil layout.
func (t *TypeLayout) KindOf() Kind {
	if t == nil {
		return KindNone
	}
	return t.Kind
}

// CategoryByIndex returns CategoryNone when index is out of range.
func (t *TypeLayout) CategoryByIndex(index int) Category {
	if t == nil || index < 0 || index >= len(t.Categories) {
		return CategoryNone
	}
	return t.Categories[index]
}

// FieldCount returns the number of struct members.
func (t *TypeLayout) FieldCount() int {
	if t == nil {
		return 0
	}
	return len(t.Fields)
}

// FieldByIndex returns nil when index is out of range.
func (t *TypeLayout) FieldByIndex(index int) *VarLayout {
	if t == nil || index < 0 || index >= len(t.Fields) {
		return nil
	}
	return t.Fields[index]
}

// Size returns the size in category c, 0 when not consumed.
func (t *TypeLayout) Size(c Category) uint64 {
	if t == nil {
		return 0
	}
	return t.Sizes[c]
}

// VarLayout is a named variable (parameter or member) and its offsets.
type VarLayout struct {
	Name string
	Type *TypeLayout

	// Offsets holds the offset per category. A category that the variable
	// does not occupy has offset 0.
	Offsets map[Category]uint64
}

// Offset returns the offset in category c.
func (v *VarLayout) Offset(c Category) uint64 {
	if v == nil {
		return 0
	}
	return v.Offsets[c]
}

// Has reports whether the variable has an offset in category c.
func (v *VarLayout) Has(c Category) bool {
	if v == nil {
		return false
	}
	_, ok := v.Offsets[c]
	return ok
}

// EntryPointLayout describes one entry point of a program.
type EntryPointLayout struct {
	Name  string
	Stage Stage

	// Var is the entry point's parameter list, usually a struct whose
	// fields are the individual parameters.
	Var *VarLayout
}

// ProgramLayout describes a whole program for one target.
type ProgramLayout struct {
	EntryPoints []*EntryPointLayout
}

// EntryPointCount returns the number of entry points.
func (p *ProgramLayout) EntryPointCount() int {
	if p == nil {
		return 0
	}
	return len(p.EntryPoints)
}

// EntryPointByIndex returns nil when index is out of range.
func (p *ProgramLayout) EntryPointByIndex(index int) *EntryPointLayout {
	if p == nil || index < 0 || index >= len(p.EntryPoints) {
		return nil
	}
	return p.EntryPoints[index]
}
