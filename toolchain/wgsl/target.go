package wgsl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/msl"
	"github.com/gogpu/naga/spirv"

	"github.com/gogpu/shaderbuild/toolchain"
)

// target is a resolved TargetDesc. Only the version field matching format
// is meaningful.
type target struct {
	format  toolchain.Format
	profile string
	spirv   spirv.Version
	msl     msl.Version
	glsl    glsl.Version
	hlsl    hlsl.ShaderModel
}

var (
	spirvProfiles = map[string]spirv.Version{
		"spirv_1_0": spirv.Version1_0,
		"spirv_1_3": spirv.Version1_3,
		"spirv_1_4": spirv.Version1_4,
		"spirv_1_5": spirv.Version1_5,
		"spirv_1_6": spirv.Version1_6,
	}
	mslProfiles = map[string]msl.Version{
		"msl_2_0": msl.Version2_0,
		"msl_2_1": msl.Version2_1,
		"msl_2_3": msl.Version2_3,
		"msl_3_0": msl.Version3_0,
	}
	glslProfiles = map[string]glsl.Version{
		"glsl_330":    glsl.Version330,
		"glsl_400":    glsl.Version400,
		"glsl_410":    glsl.Version410,
		"glsl_420":    glsl.Version420,
		"glsl_430":    glsl.Version430,
		"glsl_450":    glsl.Version450,
		"glsl_460":    glsl.Version460,
		"glsl_es_300": glsl.VersionES300,
		"glsl_es_310": glsl.VersionES310,
		"glsl_es_320": glsl.VersionES320,
	}
	hlslProfiles = map[string]hlsl.ShaderModel{
		"sm_5_1": hlsl.ShaderModel5_1,
		"sm_6_0": hlsl.ShaderModel6_0,
	}
)

var defaultProfiles = map[toolchain.Format]string{
	toolchain.FormatSPIRV: "spirv_1_3",
	toolchain.FormatMSL:   "msl_2_1",
	toolchain.FormatGLSL:  "glsl_330",
	toolchain.FormatHLSL:  "sm_5_1",
}

// Profiles returns the profile names accepted for f, sorted.
func Profiles(f toolchain.Format) []string {
	var names []string
	switch f {
	case toolchain.FormatSPIRV:
		names = keys(spirvProfiles)
	case toolchain.FormatMSL:
		names = keys(mslProfiles)
	case toolchain.FormatGLSL:
		names = keys(glslProfiles)
	case toolchain.FormatHLSL:
		names = keys(hlslProfiles)
	}
	return names
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func resolveTarget(desc toolchain.TargetDesc) (target, error) {
	profile := strings.ToLower(strings.TrimSpace(desc.Profile))
	if profile == "" {
		profile = defaultProfiles[desc.Format]
	}
	t := target{format: desc.Format, profile: profile}

	var ok bool
	switch desc.Format {
	case toolchain.FormatSPIRV:
		t.spirv, ok = spirvProfiles[profile]
	case toolchain.FormatMSL:
		t.msl, ok = mslProfiles[profile]
	case toolchain.FormatGLSL:
		t.glsl, ok = glslProfiles[profile]
	case toolchain.FormatHLSL:
		t.hlsl, ok = hlslProfiles[profile]
	default:
		return target{}, fmt.Errorf("wgsl: unsupported format %s", desc.Format)
	}
	if !ok {
		return target{}, fmt.Errorf("wgsl: unknown %s profile %q (want one of %s)",
			desc.Format, desc.Profile, strings.Join(Profiles(desc.Format), ", "))
	}
	return t, nil
}
