package shaderbuild

import (
	"log/slog"

	"github.com/gogpu/shaderbuild/toolchain"
)

// Module is a loaded shader module. A module that failed to compile has no
// handle; Valid reports false and Diagnostics explains why.
//
// Handing a module to ComponentList.AddModule or Compiler.LinkModule
// transfers ownership. Lookups keep working afterwards, but the module
// cannot be handed on a second time.
type Module struct {
	handle      toolchain.Module
	name        string
	diagnostics string
	consumed    bool
	log         *slog.Logger
}

// Valid reports whether the module compiled.
func (m *Module) Valid() bool {
	return m != nil && m.handle != nil
}

// Name returns the name the module was loaded under.
func (m *Module) Name() string {
	return m.name
}

// Diagnostics returns the toolchain output produced while loading.
func (m *Module) Diagnostics() string {
	return m.diagnostics
}

// EntryPointCount returns the number of entry points the module defines.
// An invalid module has none.
func (m *Module) EntryPointCount() int {
	if !m.Valid() {
		return 0
	}
	return m.handle.DefinedEntryPointCount()
}

// EntryPointAt returns the entry point at index. The index must be in
// [0, EntryPointCount()); otherwise the returned entry point is invalid.
func (m *Module) EntryPointAt(index int) *EntryPoint {
	if !m.Valid() || index < 0 || index >= m.handle.DefinedEntryPointCount() {
		return &EntryPoint{module: m.name}
	}
	return newEntryPoint(m.handle.DefinedEntryPoint(index), m.name)
}

// FindEntryPointByName looks up an entry point. When there is none, the
// returned entry point is invalid.
func (m *Module) FindEntryPointByName(name string) *EntryPoint {
	if !m.Valid() {
		return &EntryPoint{module: m.name}
	}
	ep := m.handle.FindEntryPointByName(name)
	if ep == nil {
		m.logger().Debug("shaderbuild: entry point not found", "module", m.name, "entry_point", name)
	}
	return newEntryPoint(ep, m.name)
}

func (m *Module) logger() *slog.Logger {
	if m.log == nil {
		return Logger()
	}
	return m.log
}

// take transfers ownership of the module's handle to the caller.
func (m *Module) take() (toolchain.Module, error) {
	switch {
	case m == nil:
		return nil, ErrInvalidModule
	case m.consumed:
		return nil, ErrConsumed
	case m.handle == nil:
		return nil, ErrInvalidModule
	}
	m.consumed = true
	return m.handle, nil
}

// EntryPoint is one stage function of a module. An entry point that was
// not found has no handle; Valid reports false.
type EntryPoint struct {
	handle   toolchain.EntryPoint
	module   string
	consumed bool
}

func newEntryPoint(h toolchain.EntryPoint, module string) *EntryPoint {
	return &EntryPoint{handle: h, module: module}
}

// Valid reports whether the entry point exists.
func (e *EntryPoint) Valid() bool {
	return e != nil && e.handle != nil
}

// Name returns the entry point's function name, or "" if invalid.
func (e *EntryPoint) Name() string {
	if !e.Valid() {
		return ""
	}
	return e.handle.Name()
}

// Stage returns the entry point's stage. Invalid entry points report
// StageNone.
func (e *EntryPoint) Stage() Stage {
	if !e.Valid() {
		return StageNone
	}
	return stageOf(e.handle.Stage())
}

// Module returns the name of the module the entry point came from.
func (e *EntryPoint) Module() string {
	return e.module
}

func (e *EntryPoint) take() (toolchain.EntryPoint, error) {
	switch {
	case e == nil:
		return nil, ErrInvalidEntryPoint
	case e.consumed:
		return nil, ErrConsumed
	case e.handle == nil:
		return nil, ErrInvalidEntryPoint
	}
	e.consumed = true
	return e.handle, nil
}
