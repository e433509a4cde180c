package shaderbuild

import "github.com/gogpu/shaderbuild/toolchain"

// UnitKind tells which kind of value a CompileUnit holds.
type UnitKind uint8

const (
	UnitModule UnitKind = iota
	UnitEntryPoint
)

func (k UnitKind) String() string {
	if k == UnitEntryPoint {
		return "entry_point"
	}
	return "module"
}

// CompileUnit is one element of a ComponentList: either a whole module or
// a single entry point.
type CompileUnit struct {
	Kind UnitKind
	Name string

	module     toolchain.Module
	entryPoint toolchain.EntryPoint
}

func (u CompileUnit) component() toolchain.ComponentType {
	if u.Kind == UnitEntryPoint {
		return u.entryPoint
	}
	return u.module
}

// ComponentList collects modules and entry points to be composed into one
// program. Order matters: it fixes the entry point order of the composed
// program.
//
// Compiler.Compose consumes the list; afterwards every method returns
// ErrConsumed.
type ComponentList struct {
	units    []CompileUnit
	consumed bool
}

// NewComponentList returns an empty list.
func NewComponentList() *ComponentList {
	return &ComponentList{}
}

// AddModule appends m and takes ownership of it.
func (l *ComponentList) AddModule(m *Module) error {
	if l.consumed {
		return ErrConsumed
	}
	h, err := m.take()
	if err != nil {
		return err
	}
	l.units = append(l.units, CompileUnit{Kind: UnitModule, Name: m.name, module: h})
	return nil
}

// AddEntryPoint appends e and takes ownership of it.
func (l *ComponentList) AddEntryPoint(e *EntryPoint) error {
	if l.consumed {
		return ErrConsumed
	}
	h, err := e.take()
	if err != nil {
		return err
	}
	l.units = append(l.units, CompileUnit{Kind: UnitEntryPoint, Name: h.Name(), entryPoint: h})
	return nil
}

// Len returns the number of units.
func (l *ComponentList) Len() int {
	return len(l.units)
}

// Units returns a copy of the units in insertion order.
func (l *ComponentList) Units() []CompileUnit {
	return append([]CompileUnit(nil), l.units...)
}

// Consumed reports whether the list was handed to Compose.
func (l *ComponentList) Consumed() bool {
	return l.consumed
}

// take marks the list consumed and returns its toolchain components.
func (l *ComponentList) take() ([]toolchain.ComponentType, error) {
	if l == nil {
		return nil, nil
	}
	if l.consumed {
		return nil, ErrConsumed
	}
	l.consumed = true
	components := make([]toolchain.ComponentType, len(l.units))
	for i, u := range l.units {
		components[i] = u.component()
	}
	l.units = nil
	return components, nil
}
