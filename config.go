package shaderbuild

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/shaderbuild/toolchain"
)

// TargetConfig describes the one target a Compiler builds for.
//
// In TOML:
//
//	format = "spirv"
//	profile = "spirv_1_3"
//	search_paths = ["shaders"]
//
//	[[options]]
//	name = "DebugInformation"
//	kind = "int"
//	int0 = 1
type TargetConfig struct {
	Format      toolchain.Format        `toml:"format"`
	Profile     string                  `toml:"profile"`
	Options     []toolchain.OptionEntry `toml:"options"`
	SearchPaths []string                `toml:"search_paths"`
}

// DefaultConfig returns a SPIR-V 1.0 target with direct SPIR-V emission.
func DefaultConfig() TargetConfig {
	return TargetConfig{
		Format:  toolchain.FormatSPIRV,
		Profile: "spirv_1_0",
		Options: []toolchain.OptionEntry{
			toolchain.IntOption(toolchain.OptionEmitSpirvDirectly, 1),
		},
	}
}

// LoadConfig reads a TOML config file. Keys missing from the file keep
// their DefaultConfig values; unknown keys are an error.
func LoadConfig(path string) (TargetConfig, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return TargetConfig{}, fmt.Errorf("shaderbuild: read config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return TargetConfig{}, fmt.Errorf("shaderbuild: config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// WithOption returns a copy of c with the option set, replacing an
// existing option of the same name.
func (c TargetConfig) WithOption(opt toolchain.OptionEntry) TargetConfig {
	out := c
	out.Options = make([]toolchain.OptionEntry, 0, len(c.Options)+1)
	for _, o := range c.Options {
		if o.Name != opt.Name {
			out.Options = append(out.Options, o)
		}
	}
	out.Options = append(out.Options, opt)
	return out
}

// Fingerprint returns a stable text form of the config, used to key build
// caches.
func (c TargetConfig) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s", c.Format, c.Profile)
	for _, o := range c.Options {
		fmt.Fprintf(&b, "|%s:%s:%d:%d:%s:%s", o.Name, o.Kind, o.Int0, o.Int1, o.String0, o.String1)
	}
	for _, p := range c.SearchPaths {
		fmt.Fprintf(&b, "|path:%s", p)
	}
	return b.String()
}

func (c TargetConfig) sessionDesc() (toolchain.SessionDesc, error) {
	if c.Format == toolchain.FormatUnknown {
		return toolchain.SessionDesc{}, fmt.Errorf("shaderbuild: config has no target format")
	}
	return toolchain.SessionDesc{
		Targets:     []toolchain.TargetDesc{{Format: c.Format, Profile: c.Profile}},
		Options:     append([]toolchain.OptionEntry(nil), c.Options...),
		SearchPaths: append([]string(nil), c.SearchPaths...),
	}, nil
}
