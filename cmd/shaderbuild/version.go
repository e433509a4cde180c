package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gogpu/shaderbuild"
)

// version is set at build time with -ldflags "-X main.version=v1.2.3".
var version = ""

var versionColor = color.New(color.FgGreen, color.Bold)

// versionString returns the linked-in version, the module version when
// installed with go install, or the library version.
func versionString() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return shaderbuild.Version
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the shaderbuild version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprint(out, "shaderbuild ")
			_, _ = versionColor.Fprint(out, versionString())
			fmt.Fprintf(out, " (%s %s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
