// Package toolchain defines the boundary between shaderbuild and the shader
// compiler that does the actual work.
//
// A toolchain creates a global session, from which sessions bound to a set
// of targets are made. Sessions load modules, compose modules and entry
// points into programs, link them, produce target code and describe the
// memory layout of a program's parameters.
//
// Every operation that can fail on user input returns its diagnostics as
// text next to the result instead of an error. A nil result means the
// operation failed; the diagnostics say why.
//
// The layout description is plain data (see [ProgramLayout]), so tests and
// alternative toolchains can build it directly.
package toolchain

// Toolchain creates global sessions.
type Toolchain interface {
	// CreateGlobalSession initializes the toolchain. An error here is not
	// recoverable for the caller.
	CreateGlobalSession() (GlobalSession, error)
}

// GlobalSession is the process-wide toolchain context.
type GlobalSession interface {
	// CreateSession returns a session bound to the targets and options in
	// desc. Unknown formats, profiles or options are errors.
	CreateSession(desc SessionDesc) (Session, error)
}

// Session loads and composes modules for a fixed set of targets.
//
// A Session is not safe for concurrent use.
type Session interface {
	// LoadModule loads a module by name or path.
	LoadModule(name string) (Module, string)

	// LoadModuleFromSource compiles source under the given module name.
	// path labels the source in diagnostics.
	LoadModuleFromSource(name, path, source string) (Module, string)

	// CreateCompositeComponentType composes units, in order, into one
	// program. An empty slice is allowed.
	CreateCompositeComponentType(units []ComponentType) (ComponentType, string)

	// TargetCount reports how many targets the session was created with.
	TargetCount() int
}

// ComponentType is anything that can be linked, laid out and turned into
// target code: a module, an entry point, or a composed or linked program.
type ComponentType interface {
	// Link resolves the component into a program ready for code
	// generation.
	Link() (ComponentType, string)

	// Layout describes the component's parameters for the given target.
	Layout(target int) (*ProgramLayout, string)

	// TargetCode generates code for the given target.
	TargetCode(target int) ([]byte, string)
}

// Module is a compiled translation unit.
type Module interface {
	ComponentType

	Name() string
	Path() string

	// DefinedEntryPointCount returns the number of entry points declared
	// by the module itself.
	DefinedEntryPointCount() int

	// DefinedEntryPoint returns the entry point at index, or nil when the
	// index is out of range.
	DefinedEntryPoint(index int) EntryPoint

	// FindEntryPointByName returns nil when no entry point has that name.
	FindEntryPointByName(name string) EntryPoint
}

// EntryPoint is one stage function of a module.
type EntryPoint interface {
	ComponentType

	Name() string
	Stage() Stage
}
