// Package shaderbuild compiles shader modules into target code and
// describes the parameter layout of their entry points.
//
// # Overview
//
// A Compiler owns one toolchain session configured for a single target
// (SPIR-V, MSL, GLSL or HLSL and a profile of it). Modules are loaded by
// name or path, optionally narrowed to chosen entry points with a
// ComponentList, composed, linked, and then turned into ByteCode and a
// ProgramReflection.
//
// # Quick Start
//
//	import "github.com/gogpu/shaderbuild"
//
//	c, err := shaderbuild.New(shaderbuild.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	linked, err := c.LinkFile("shaders/compute_add.wgsl")
//	if err != nil {
//	    return err
//	}
//	code, _ := linked.TargetCode()
//	refl, _ := linked.Reflect()
//
// # Ownership
//
// Modules, entry points, component lists and composed components are
// consumed by the call that takes them. Passing one to a second consuming
// call fails with ErrConsumed. Lookups such as FindEntryPointByName keep
// working on a consumed module.
//
// # Reflection
//
// Only struct-typed top-level parameters become parameter blocks. Field
// offsets are absolute within the block: bytes for uniform and storage
// buffers, locations for varying inputs. Fields are classified as float2,
// float3 or float4 vectors, or undefined for anything else. Nested
// structs are skipped.
//
// # Toolchains
//
// The default toolchain, package toolchain/wgsl, compiles WGSL with naga.
// Other compilers plug in through the interfaces of package toolchain.
//
// # Related packages
//
//   - build: parallel batch builds with an optional artifact cache
//   - store: the bbolt artifact cache
//   - binding: wgpu shader module descriptors, bind group and vertex layouts
package shaderbuild

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = "alpha.1"
)
