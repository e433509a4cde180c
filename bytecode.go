package shaderbuild

import (
	"encoding/binary"

	"github.com/gogpu/shaderbuild/toolchain"
)

// ByteCode is the generated code for one target together with the
// diagnostics produced while generating it. It is immutable.
type ByteCode struct {
	code        []byte
	format      toolchain.Format
	diagnostics string
}

// NewByteCode wraps code produced for format. The slice is copied.
func NewByteCode(code []byte, format toolchain.Format, diagnostics string) *ByteCode {
	return &ByteCode{
		code:        append([]byte(nil), code...),
		format:      format,
		diagnostics: diagnostics,
	}
}

// Bytes returns the code. The returned slice must not be modified.
func (b *ByteCode) Bytes() []byte {
	return b.code
}

// Words returns the code as little-endian 32-bit words, the layout SPIR-V
// consumers expect. It fails with ErrUnalignedCode when the length is not
// a multiple of 4.
func (b *ByteCode) Words() ([]uint32, error) {
	if len(b.code)%4 != 0 {
		return nil, ErrUnalignedCode
	}
	words := make([]uint32, len(b.code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b.code[i*4:])
	}
	return words, nil
}

// Len returns the code length in bytes.
func (b *ByteCode) Len() int {
	return len(b.code)
}

// Empty reports whether no code was produced.
func (b *ByteCode) Empty() bool {
	return len(b.code) == 0
}

// Format returns the target format the code was generated for.
func (b *ByteCode) Format() toolchain.Format {
	return b.format
}

// Diagnostics returns the toolchain output for code generation.
func (b *ByteCode) Diagnostics() string {
	return b.diagnostics
}
