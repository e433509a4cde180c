package shaderbuild

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/shaderbuild/toolchain"
)

// ComponentState is the pipeline stage a Component is in.
type ComponentState uint8

const (
	// StateComposed is the result of Compiler.Compose.
	StateComposed ComponentState = iota
	// StateLinked is the result of Compiler.Link or Compiler.LinkModule.
	StateLinked
)

func (s ComponentState) String() string {
	if s == StateLinked {
		return "linked"
	}
	return "composed"
}

// Component is a composed or linked program.
//
// Target code and reflection are normally taken from a linked component,
// though both also work on a composed one. Passing a composed component to
// Compiler.Link consumes it.
type Component struct {
	handle      toolchain.ComponentType
	state       ComponentState
	formats     []toolchain.Format
	diagnostics string
	consumed    bool
	log         *slog.Logger
}

// Valid reports whether the toolchain produced a program.
func (c *Component) Valid() bool {
	return c != nil && c.handle != nil
}

// State returns whether the component is composed or linked.
func (c *Component) State() ComponentState {
	return c.state
}

// Diagnostics returns the toolchain output of the compose or link step
// that produced the component.
func (c *Component) Diagnostics() string {
	return c.diagnostics
}

func (c *Component) usable() error {
	switch {
	case c == nil || c.handle == nil:
		return ErrInvalidComponent
	case c.consumed:
		return ErrConsumed
	}
	return nil
}

// TargetCode returns the code for target 0.
func (c *Component) TargetCode() (*ByteCode, error) {
	return c.TargetCodeAt(0)
}

// TargetCodeAt returns the code for the session target at index. When
// generation fails the ByteCode is empty and carries the diagnostics.
func (c *Component) TargetCodeAt(target int) (*ByteCode, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	code, diag := c.handle.TargetCode(target)
	if diag != "" {
		c.log.Warn("shaderbuild: code generation diagnostics", "target", target, "diagnostics", diag)
	}
	return NewByteCode(code, c.formatOf(target), diag), nil
}

func (c *Component) formatOf(target int) toolchain.Format {
	if target < 0 || target >= len(c.formats) {
		return toolchain.FormatUnknown
	}
	return c.formats[target]
}

// Reflect describes the program's entry points for target 0.
func (c *Component) Reflect() (*ProgramReflection, error) {
	return c.ReflectTarget(0)
}

// ReflectTarget describes the program's entry points for the session
// target at index. It fails only when the toolchain cannot produce a
// layout; layout diagnostics are kept on the result.
//
// The result depends only on the component, so repeated calls return
// equal values.
func (c *Component) ReflectTarget(target int) (*ProgramReflection, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	layout, diag := c.handle.Layout(target)
	if layout == nil {
		return nil, fmt.Errorf("%w: target %d: %s", ErrLayoutUnavailable, target, diag)
	}
	if diag != "" {
		c.log.Warn("shaderbuild: layout diagnostics", "target", target, "diagnostics", diag)
	}
	prog := reflector{log: c.log}.program(layout)
	prog.Diagnostics = diag
	return prog, nil
}
