package toolchain

import (
	"fmt"
	"strings"
)

// Format identifies a code generation target.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatSPIRV
	FormatMSL
	FormatGLSL
	FormatHLSL
)

var formatNames = [...]string{
	FormatUnknown: "unknown",
	FormatSPIRV:   "spirv",
	FormatMSL:     "msl",
	FormatGLSL:    "glsl",
	FormatHLSL:    "hlsl",
}

// String returns the lower-case name used in configuration files.
func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// Binary reports whether the format produces binary code rather than
// source text.
func (f Format) Binary() bool {
	return f == FormatSPIRV
}

// Extension returns the conventional file extension, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatSPIRV:
		return "spv"
	case FormatMSL:
		return "metal"
	case FormatGLSL:
		return "glsl"
	case FormatHLSL:
		return "hlsl"
	default:
		return "bin"
	}
}

// ParseFormat parses a format name. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range formatNames {
		if i != int(FormatUnknown) && n == name {
			return Format(i), nil
		}
	}
	return FormatUnknown, fmt.Errorf("toolchain: unknown format %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	v, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// TargetDesc selects one output of a session.
type TargetDesc struct {
	Format Format
	// Profile names the version of the target, e.g. "spirv_1_3". Empty
	// selects the toolchain default for the format.
	Profile string
}

// OptionValueKind tells which fields of an OptionEntry carry the value.
type OptionValueKind uint8

const (
	OptionKindInt OptionValueKind = iota
	OptionKindString
)

// String returns "int" or "string".
func (k OptionValueKind) String() string {
	if k == OptionKindString {
		return "string"
	}
	return "int"
}

// UnmarshalText implements encoding.TextUnmarshaler for config files.
func (k *OptionValueKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "", "int":
		*k = OptionKindInt
	case "string":
		*k = OptionKindString
	default:
		return fmt.Errorf("toolchain: unknown option kind %q", text)
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (k OptionValueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Well-known option names.
const (
	OptionEmitSpirvDirectly = "EmitSpirvDirectly"
	OptionDebugInformation  = "DebugInformation"
	OptionSkipValidation    = "SkipValidation"
)

// OptionEntry is one named compiler option with a typed value.
type OptionEntry struct {
	Name    string          `toml:"name" yaml:"name"`
	Kind    OptionValueKind `toml:"kind" yaml:"kind"`
	Int0    int32           `toml:"int0" yaml:"int0,omitempty"`
	Int1    int32           `toml:"int1" yaml:"int1,omitempty"`
	String0 string          `toml:"string0" yaml:"string0,omitempty"`
	String1 string          `toml:"string1" yaml:"string1,omitempty"`
}

// IntOption returns an integer option entry.
func IntOption(name string, v int32) OptionEntry {
	return OptionEntry{Name: name, Kind: OptionKindInt, Int0: v}
}

// Enabled reports whether an integer option is set to a non-zero value.
func (o OptionEntry) Enabled() bool {
	return o.Kind == OptionKindInt && o.Int0 != 0
}

// SessionDesc configures a session.
type SessionDesc struct {
	Targets     []TargetDesc
	Options     []OptionEntry
	SearchPaths []string
}
