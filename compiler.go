package shaderbuild

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/shaderbuild/toolchain"
)

// Compiler owns one compilation session and runs the module → component
// pipeline:
//
//	LoadModule → ComponentList → Compose → Link → TargetCode / Reflect
//
// or, for a module whose own entry points are enough:
//
//	LoadModule → LinkModule → TargetCode / Reflect
//
// Every call runs to completion before returning. Calls are serialized, so
// a Compiler may be shared between goroutines, but they will not run in
// parallel; use one Compiler per goroutine for that.
type Compiler struct {
	mu      sync.Mutex
	config  TargetConfig
	formats []toolchain.Format
	session toolchain.Session
	log     *slog.Logger
}

// New creates the toolchain sessions for cfg. An error wraps
// ErrSessionCreate and means no compilation is possible with this
// configuration.
func New(cfg TargetConfig, opts ...Option) (*Compiler, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = Logger()
	}

	desc, err := cfg.sessionDesc()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionCreate, err)
	}
	global, err := o.toolchain.CreateGlobalSession()
	if err != nil {
		return nil, fmt.Errorf("%w: global session: %w", ErrSessionCreate, err)
	}
	session, err := global.CreateSession(desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrSessionCreate, cfg.Format, cfg.Profile, err)
	}

	formats := make([]toolchain.Format, len(desc.Targets))
	for i, t := range desc.Targets {
		formats[i] = t.Format
	}
	log.Debug("shaderbuild: session created", "format", cfg.Format, "profile", cfg.Profile)

	return &Compiler{
		config:  cfg,
		formats: formats,
		session: session,
		log:     log,
	}, nil
}

// Config returns the configuration the Compiler was created with.
func (c *Compiler) Config() TargetConfig {
	return c.config
}

// LoadModule loads a module by name or path. Compile errors do not fail
// the call: the module is invalid and carries the diagnostics. Check
// Module.Valid before using it.
func (c *Compiler) LoadModule(pathOrName string) *Module {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, diag := c.session.LoadModule(pathOrName)
	return c.newModule(pathOrName, h, diag)
}

// LoadModuleFromSource compiles in-memory source as module name. path
// labels the source in diagnostics.
func (c *Compiler) LoadModuleFromSource(name, path, source string) *Module {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, diag := c.session.LoadModuleFromSource(name, path, source)
	return c.newModule(name, h, diag)
}

func (c *Compiler) newModule(name string, h toolchain.Module, diag string) *Module {
	if h == nil {
		c.log.Warn("shaderbuild: module failed to load", "module", name, "diagnostics", diag)
		return &Module{name: name, diagnostics: diag, log: c.log}
	}
	if diag != "" {
		c.log.Warn("shaderbuild: module diagnostics", "module", name, "diagnostics", diag)
	}
	c.log.Debug("shaderbuild: module loaded", "module", h.Name(), "entry_points", h.DefinedEntryPointCount())
	return &Module{handle: h, name: h.Name(), diagnostics: diag, log: c.log}
}

// Compose combines the list's units, in order, into one program. The list
// is consumed. An empty list composes to whatever the toolchain makes of
// no units.
func (c *Compiler) Compose(list *ComponentList) (*Component, error) {
	units, err := list.take()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	h, diag := c.session.CreateCompositeComponentType(units)
	c.log.Debug("shaderbuild: composed", "units", len(units), "ok", h != nil)
	return c.newComponent(h, StateComposed, diag), nil
}

// Link links a composed component. The argument is consumed. Linking a
// linked component fails with ErrAlreadyLinked.
func (c *Compiler) Link(comp *Component) (*Component, error) {
	if err := comp.usable(); err != nil {
		return nil, err
	}
	if comp.state == StateLinked {
		return nil, ErrAlreadyLinked
	}
	comp.consumed = true

	c.mu.Lock()
	defer c.mu.Unlock()

	h, diag := comp.handle.Link()
	c.log.Debug("shaderbuild: linked", "ok", h != nil)
	return c.newComponent(h, StateLinked, diag), nil
}

// LinkModule links a module on its own, without a compose step. The module
// is consumed.
func (c *Compiler) LinkModule(m *Module) (*Component, error) {
	h, err := m.take()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	linked, diag := h.Link()
	c.log.Debug("shaderbuild: linked module", "module", m.name, "ok", linked != nil)
	return c.newComponent(linked, StateLinked, diag), nil
}

// LinkFile loads the module at path and links it. A module that fails to
// load is reported as ErrInvalidModule with its diagnostics.
func (c *Compiler) LinkFile(path string) (*Component, error) {
	m := c.LoadModule(path)
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidModule, path, m.Diagnostics())
	}
	return c.LinkModule(m)
}

func (c *Compiler) newComponent(h toolchain.ComponentType, state ComponentState, diag string) *Component {
	if h == nil {
		c.log.Warn("shaderbuild: component is invalid", "state", state, "diagnostics", diag)
	} else if diag != "" {
		c.log.Warn("shaderbuild: component diagnostics", "state", state, "diagnostics", diag)
	}
	return &Component{
		handle:      h,
		state:       state,
		formats:     c.formats,
		diagnostics: diag,
		log:         c.log,
	}
}
