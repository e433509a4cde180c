// Package build compiles many shader files into target code and
// reflection, in parallel, with an optional persistent cache.
//
//	b := build.New(cfg, build.WithStore(st), build.WithWorkers(4))
//	artifacts, err := b.BuildAll(ctx, paths)
//
// Each worker owns its own shaderbuild.Compiler. Per-file failures do not
// stop the batch; BuildAll returns every artifact it could build and all
// failures combined.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/shaderbuild"
	"github.com/gogpu/shaderbuild/store"
	"github.com/gogpu/shaderbuild/toolchain"
)

// Artifact is the result of building one file.
type Artifact struct {
	Name        string
	Path        string
	Format      toolchain.Format
	Code        []byte
	Reflection  *shaderbuild.ProgramReflection
	Diagnostics string

	// Cached reports whether the artifact came from the store.
	Cached bool
}

// Builder builds shader files for one target configuration.
type Builder struct {
	config   shaderbuild.TargetConfig
	compiler []shaderbuild.Option
	store    *store.Store
	workers  int
	log      *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithStore caches artifacts in st.
func WithStore(st *store.Store) Option {
	return func(b *Builder) { b.store = st }
}

// WithWorkers bounds the number of files built at once. Values below 1
// select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// WithCompilerOptions passes options to every Compiler the Builder
// creates.
func WithCompilerOptions(opts ...shaderbuild.Option) Option {
	return func(b *Builder) { b.compiler = append(b.compiler, opts...) }
}

// WithLogger sets the Builder's logger. Compilers keep their own unless
// WithCompilerOptions sets one.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// New returns a Builder for cfg.
func New(cfg shaderbuild.TargetConfig, opts ...Option) *Builder {
	b := &Builder{config: cfg}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers < 1 {
		b.workers = runtime.GOMAXPROCS(0)
	}
	if b.log == nil {
		b.log = shaderbuild.Logger()
	}
	return b
}

// Build builds a single file.
func (b *Builder) Build(ctx context.Context, path string) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := shaderbuild.New(b.config, b.compiler...)
	if err != nil {
		return nil, err
	}
	return b.build(c, path)
}

// BuildAll builds paths with up to the configured number of workers. The
// returned slice is parallel to paths; entries for failed files are nil.
// The error combines every per-file failure, or is the context error when
// ctx is cancelled.
func (b *Builder) BuildAll(ctx context.Context, paths []string) ([]*Artifact, error) {
	results := make([]*Artifact, len(paths))
	if len(paths) == 0 {
		return results, nil
	}
	workers := min(b.workers, len(paths))

	pool := make(chan *shaderbuild.Compiler, workers)
	for range workers {
		c, err := shaderbuild.New(b.config, b.compiler...)
		if err != nil {
			return nil, err
		}
		pool <- c
	}

	errs := make([]error, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := <-pool
			defer func() { pool <- c }()

			results[i], errs[i] = b.build(c, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	var merr *multierror.Error
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return results, merr.ErrorOrNil()
}

func (b *Builder) build(c *shaderbuild.Compiler, path string) (*Artifact, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	key := store.NewKey([]byte(toolchainID), []byte(b.config.Fingerprint()), []byte(path), source)

	if b.store != nil {
		e, ok, err := b.store.Get(key)
		if err != nil {
			b.log.Warn("build: cache read failed", "path", path, "err", err)
		} else if ok {
			b.log.Debug("build: cache hit", "path", path, "key", key)
			return &Artifact{
				Name:        e.Name,
				Path:        e.Path,
				Format:      e.Format,
				Code:        e.Code,
				Reflection:  e.Reflection,
				Diagnostics: e.Diagnostics,
				Cached:      true,
			}, nil
		}
	}

	m := c.LoadModuleFromSource(name, path, string(source))
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %s\n%s", shaderbuild.ErrInvalidModule, path, m.Diagnostics())
	}
	linked, err := c.LinkModule(m)
	if err != nil {
		return nil, fmt.Errorf("build: %s: %w", path, err)
	}
	if !linked.Valid() {
		return nil, fmt.Errorf("%w: %s\n%s", shaderbuild.ErrInvalidComponent, path, linked.Diagnostics())
	}
	code, err := linked.TargetCode()
	if err != nil {
		return nil, fmt.Errorf("build: %s: %w", path, err)
	}
	if code.Empty() {
		return nil, fmt.Errorf("build: %s: no %s code generated\n%s", path, code.Format(), code.Diagnostics())
	}
	refl, err := linked.Reflect()
	if err != nil {
		return nil, fmt.Errorf("build: %s: %w", path, err)
	}

	art := &Artifact{
		Name:        name,
		Path:        path,
		Format:      code.Format(),
		Code:        code.Bytes(),
		Reflection:  refl,
		Diagnostics: joinDiagnostics(m.Diagnostics(), linked.Diagnostics(), code.Diagnostics(), refl.Diagnostics),
	}
	if b.store != nil {
		err := b.store.Put(key, &store.Entry{
			Name:        art.Name,
			Path:        art.Path,
			Format:      art.Format,
			Code:        art.Code,
			Reflection:  art.Reflection,
			Diagnostics: art.Diagnostics,
		})
		if err != nil {
			b.log.Warn("build: cache write failed", "path", path, "err", err)
		}
	}
	b.log.Debug("build: built", "path", path, "format", art.Format, "bytes", len(art.Code))
	return art, nil
}

// toolchainID names the compiler versions that produced an artifact. It is
// part of every store key, so upgrading either one invalidates the cache.
var toolchainID = toolchainIdentity()

func toolchainIdentity() string {
	id := "shaderbuild/" + shaderbuild.Version
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			if dep.Path == "github.com/gogpu/naga" {
				id += " naga/" + dep.Version
			}
		}
	}
	return id
}

func joinDiagnostics(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
