package wgsl

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/shaderbuild/internal/cache"
	"github.com/gogpu/shaderbuild/toolchain"
)

// DefaultCacheSize is the number of lowered modules a global session keeps
// when Toolchain.CacheSize is zero.
const DefaultCacheSize = 64

// Toolchain compiles WGSL with naga.
type Toolchain struct {
	// FS is where LoadModule reads sources. Nil means the OS filesystem.
	FS fs.FS

	// CacheSize bounds the lowered-module cache shared by the sessions of
	// one global session.
	CacheSize int
}

// CreateGlobalSession implements toolchain.Toolchain. It never fails.
func (tc Toolchain) CreateGlobalSession() (toolchain.GlobalSession, error) {
	size := tc.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &globalSession{
		fsys:    tc.FS,
		modules: cache.New[[sha256.Size]byte, *ir.Module](size),
	}, nil
}

type globalSession struct {
	fsys    fs.FS
	modules *cache.Cache[[sha256.Size]byte, *ir.Module]
}

// CreateSession implements toolchain.GlobalSession.
func (g *globalSession) CreateSession(desc toolchain.SessionDesc) (toolchain.Session, error) {
	if len(desc.Targets) == 0 {
		return nil, errors.New("wgsl: session needs at least one target")
	}
	s := &session{
		global:      g,
		searchPaths: append([]string(nil), desc.SearchPaths...),
		validate:    true,
	}
	for _, td := range desc.Targets {
		t, err := resolveTarget(td)
		if err != nil {
			return nil, err
		}
		s.targets = append(s.targets, t)
	}
	for _, o := range desc.Options {
		switch o.Name {
		case toolchain.OptionEmitSpirvDirectly:
			// naga always emits SPIR-V directly.
		case toolchain.OptionDebugInformation:
			s.debug = o.Enabled()
		case toolchain.OptionSkipValidation:
			s.validate = !o.Enabled()
		default:
			return nil, fmt.Errorf("wgsl: unknown option %q", o.Name)
		}
		if o.Kind != toolchain.OptionKindInt {
			return nil, fmt.Errorf("wgsl: option %s takes an int value", o.Name)
		}
	}
	return s, nil
}

type session struct {
	global      *globalSession
	targets     []target
	searchPaths []string
	debug       bool
	validate    bool
}

// TargetCount implements toolchain.Session.
func (s *session) TargetCount() int {
	return len(s.targets)
}

// LoadModule implements toolchain.Session. name may be a module name,
// resolved as name.wgsl against the search paths, or a path.
func (s *session) LoadModule(name string) (toolchain.Module, string) {
	file, source, err := s.find(name)
	if err != nil {
		return nil, err.Error()
	}
	return s.LoadModuleFromSource(moduleName(name), file, string(source))
}

// LoadModuleFromSource implements toolchain.Session.
func (s *session) LoadModuleFromSource(name, file, source string) (toolchain.Module, string) {
	if file == "" {
		file = name
	}
	mod, err := s.global.modules.GetOrLoad(sha256.Sum256([]byte(source)), func() (*ir.Module, error) {
		ast, err := naga.Parse(source)
		if err != nil {
			return nil, err
		}
		return naga.LowerWithSource(ast, source)
	})
	if err != nil {
		return nil, fmt.Sprintf("%s: %v", file, err)
	}
	return &module{session: s, name: name, path: file, ir: mod}, ""
}

// CreateCompositeComponentType implements toolchain.Session.
//
// All units must come from one module. Entry points are kept in the order
// they are named; a unit list naming no entry point selects all of the
// module's entry points. Repeated entry points are dropped with a note.
func (s *session) CreateCompositeComponentType(units []toolchain.ComponentType) (toolchain.ComponentType, string) {
	var (
		src      *module
		entries  []int
		explicit bool
		notes    []string
	)
	seen := make(map[int]bool)

	for i, u := range units {
		var (
			m   *module
			eps []int
		)
		switch v := u.(type) {
		case *module:
			m = v
		case *entryPoint:
			m, eps = v.module, []int{v.index}
		case *program:
			if v.linked {
				return nil, fmt.Sprintf("unit %d: a linked program cannot be composed again", i)
			}
			m, eps = v.source, v.entries
		default:
			return nil, fmt.Sprintf("unit %d: %T is not a WGSL component", i, u)
		}
		if m == nil {
			continue
		}
		if src == nil {
			src = m
		} else if src.ir != m.ir {
			return nil, fmt.Sprintf("unit %d: module %q cannot be composed with module %q: WGSL modules do not share declarations",
				i, m.name, src.name)
		}
		for _, ep := range eps {
			explicit = true
			if seen[ep] {
				notes = append(notes, fmt.Sprintf("unit %d: duplicate entry point %q dropped", i, m.ir.EntryPoints[ep].Name))
				continue
			}
			seen[ep] = true
			entries = append(entries, ep)
		}
	}
	if src != nil && !explicit {
		entries = allEntryPoints(src.ir)
	}
	return newProgram(s, src, entries), strings.Join(notes, "\n")
}

func (s *session) find(name string) (string, []byte, error) {
	file := filepath.ToSlash(name)
	if path.Ext(file) == "" {
		file += ".wgsl"
	}
	candidates := []string{file}
	if !path.IsAbs(file) {
		candidates = candidates[:0]
		for _, dir := range s.searchPaths {
			candidates = append(candidates, path.Join(filepath.ToSlash(dir), file))
		}
		candidates = append(candidates, file)
	}
	for _, c := range candidates {
		data, err := s.readFile(c)
		if err == nil {
			return c, data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("%s: %w", c, err)
		}
	}
	return "", nil, fmt.Errorf("module %q not found (tried %s)", name, strings.Join(candidates, ", "))
}

func (s *session) readFile(name string) ([]byte, error) {
	if s.global.fsys == nil {
		return os.ReadFile(filepath.FromSlash(name))
	}
	return fs.ReadFile(s.global.fsys, strings.TrimPrefix(path.Clean(name), "/"))
}

func moduleName(name string) string {
	base := path.Base(filepath.ToSlash(name))
	return strings.TrimSuffix(base, path.Ext(base))
}

func allEntryPoints(mod *ir.Module) []int {
	out := make([]int, len(mod.EntryPoints))
	for i := range out {
		out[i] = i
	}
	return out
}
