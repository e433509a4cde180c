// Package wgsl is a toolchain for WGSL sources built on naga.
//
// Modules are parsed and lowered to naga IR once per distinct source and
// cached by content digest. Composition selects entry points of a single
// module; linking restricts the IR to those entry points and validates it.
// Target code comes from naga's SPIR-V, MSL, GLSL and HLSL backends.
//
// Layouts follow WGSL's host-shareable memory layout as computed by naga:
// every bound resource global an entry point reaches becomes one parameter,
// after the entry point's own varying inputs.
//
// Profiles:
//
//	spirv  spirv_1_0 spirv_1_3 (default) spirv_1_4 spirv_1_5 spirv_1_6
//	msl    msl_2_0 msl_2_1 (default) msl_2_3 msl_3_0
//	glsl   glsl_330 (default) glsl_400 ... glsl_460 glsl_es_300 glsl_es_310 glsl_es_320
//	hlsl   sm_5_1 (default) sm_6_0
package wgsl
