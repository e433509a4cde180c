package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gogpu/shaderbuild"
	"github.com/gogpu/shaderbuild/toolchain"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	config         string
	format         string
	profile        string
	searchPaths    []string
	cache          string
	debugInfo      bool
	skipValidation bool
	verbose        bool
	color          string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "shaderbuild",
		Short:         "Compile WGSL shaders and reflect their parameter layouts",
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.config, "config", "c", "", "TOML target config file")
	pf.StringVarP(&g.format, "format", "f", "", "target format (spirv|msl|glsl|hlsl)")
	pf.StringVarP(&g.profile, "profile", "p", "", "target profile, e.g. spirv_1_3 or glsl_450")
	pf.StringSliceVarP(&g.searchPaths, "search-path", "I", nil, "directory to search for modules (repeatable)")
	pf.StringVar(&g.cache, "cache", "", "artifact cache database")
	pf.BoolVar(&g.debugInfo, "debug-info", false, "emit debug information")
	pf.BoolVar(&g.skipValidation, "skip-validation", false, "skip IR validation at link time")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log pipeline steps")
	pf.StringVar(&g.color, "color", "auto", "colorize output (auto|on|off)")

	root.AddCommand(
		newBuildCmd(g),
		newReflectCmd(g),
		newEntriesCmd(g),
		newCacheCmd(g),
		newVersionCmd(),
	)
	return root
}

func (g *globalFlags) setup(stderr io.Writer) error {
	switch strings.ToLower(g.color) {
	case "auto":
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("unsupported color mode %q (must be auto, on or off)", g.color)
	}

	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	shaderbuild.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// targetConfig loads the config file, if any, and applies flag overrides.
// Changing the format without naming a profile selects the format's
// default profile.
func (g *globalFlags) targetConfig() (shaderbuild.TargetConfig, error) {
	cfg := shaderbuild.DefaultConfig()
	if g.config != "" {
		var err error
		if cfg, err = shaderbuild.LoadConfig(g.config); err != nil {
			return shaderbuild.TargetConfig{}, err
		}
	}
	if g.format != "" {
		f, err := toolchain.ParseFormat(g.format)
		if err != nil {
			return shaderbuild.TargetConfig{}, err
		}
		if f != cfg.Format {
			cfg.Format = f
			cfg.Profile = ""
		}
	}
	if g.profile != "" {
		cfg.Profile = g.profile
	}
	cfg.SearchPaths = append(cfg.SearchPaths, g.searchPaths...)
	if g.debugInfo {
		cfg = cfg.WithOption(toolchain.IntOption(toolchain.OptionDebugInformation, 1))
	}
	if g.skipValidation {
		cfg = cfg.WithOption(toolchain.IntOption(toolchain.OptionSkipValidation, 1))
	}
	return cfg, nil
}
