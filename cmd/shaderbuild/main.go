// Command shaderbuild compiles WGSL shaders to SPIR-V, MSL, GLSL or HLSL
// and reports the parameter layout of their entry points.
//
// Usage:
//
//	shaderbuild build [--out dir] [--cache file] shader.wgsl...
//	shaderbuild reflect [--entry name]... [--output yaml|json|text] shader.wgsl
//	shaderbuild entries shader.wgsl
//	shaderbuild cache stats|prune|clear --cache file
//	shaderbuild version
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
