package shaderbuild

import (
	"log/slog"

	"github.com/gogpu/shaderbuild/toolchain"
	"github.com/gogpu/shaderbuild/toolchain/wgsl"
)

// Option configures a Compiler during creation.
//
// Example:
//
//	// WGSL sources compiled with naga (the default)
//	c, err := shaderbuild.New(shaderbuild.DefaultConfig())
//
//	// Custom toolchain and logger
//	c, err := shaderbuild.New(cfg,
//	    shaderbuild.WithToolchain(tc),
//	    shaderbuild.WithLogger(logger))
type Option func(*compilerOptions)

type compilerOptions struct {
	toolchain toolchain.Toolchain
	logger    *slog.Logger
}

func defaultOptions() compilerOptions {
	return compilerOptions{
		toolchain: wgsl.Toolchain{},
		logger:    nil, // package logger at construction time
	}
}

// WithToolchain selects the compiler toolchain. The default compiles WGSL
// with naga from the OS filesystem.
func WithToolchain(tc toolchain.Toolchain) Option {
	return func(o *compilerOptions) {
		if tc != nil {
			o.toolchain = tc
		}
	}
}

// WithLogger sets the logger for this Compiler and the components it
// produces, instead of the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *compilerOptions) {
		o.logger = l
	}
}
