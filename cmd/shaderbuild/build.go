package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/shaderbuild/build"
	"github.com/gogpu/shaderbuild/store"
)

type buildFlags struct {
	out       string
	workers   int
	noReflect bool
}

func newBuildCmd(g *globalFlags) *cobra.Command {
	f := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "build [flags] file...",
		Short: "Compile shader files to target code",
		Long: `Compile each file to <name>.<ext> in the output directory, next to a
<name>.reflect.yaml description of its entry points. Files are built in
parallel; one failing file does not stop the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, g, f, args)
		},
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", ".", "output directory")
	cmd.Flags().IntVarP(&f.workers, "jobs", "j", 0, "files built at once (0: one per CPU)")
	cmd.Flags().BoolVar(&f.noReflect, "no-reflect", false, "skip writing reflection files")
	return cmd
}

func runBuild(cmd *cobra.Command, g *globalFlags, f *buildFlags, paths []string) error {
	cfg, err := g.targetConfig()
	if err != nil {
		return err
	}
	if err := checkOutputNames(paths); err != nil {
		return err
	}

	opts := []build.Option{build.WithWorkers(f.workers)}
	if g.cache != "" {
		st, err := store.Open(g.cache)
		if err != nil {
			return err
		}
		defer st.Close()
		opts = append(opts, build.WithStore(st))
	}
	if err := os.MkdirAll(f.out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	artifacts, buildErr := build.New(cfg, opts...).BuildAll(cmd.Context(), paths)
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	for _, a := range artifacts {
		if a == nil {
			continue
		}
		if a.Diagnostics != "" {
			printDiagnostics(stderr, a.Path, a.Diagnostics)
		}
		written, err := writeArtifact(f.out, a, !f.noReflect)
		if err != nil {
			return err
		}
		printBuilt(stdout, a, written)
	}
	return buildErr
}

// checkOutputNames rejects inputs that would write the same output file.
func checkOutputNames(paths []string) error {
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		name := artifactName(p)
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("%s and %s both build to %q", prev, p, name)
		}
		seen[name] = p
	}
	return nil
}

func artifactName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// writeArtifact writes the code file and, when asked, the reflection file.
// It returns the code file path.
func writeArtifact(dir string, a *build.Artifact, withReflection bool) (string, error) {
	codePath := filepath.Join(dir, a.Name+"."+a.Format.Extension())
	if err := os.WriteFile(codePath, a.Code, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", codePath, err)
	}
	if !withReflection || a.Reflection == nil {
		return codePath, nil
	}

	reflPath := filepath.Join(dir, a.Name+".reflect.yaml")
	out, err := os.Create(reflPath)
	if err != nil {
		return "", fmt.Errorf("write %s: %w", reflPath, err)
	}
	if err := writeReflection(out, a.Reflection, outputYAML); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("write %s: %w", reflPath, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", reflPath, err)
	}
	return codePath, nil
}

func printBuilt(w io.Writer, a *build.Artifact, codePath string) {
	_, _ = okColor.Fprint(w, "built ")
	_, _ = fmt.Fprintf(w, "%s -> %s (%d bytes)", a.Path, codePath, len(a.Code))
	if a.Cached {
		_, _ = cachedColor.Fprint(w, " cached")
	}
	_, _ = fmt.Fprintln(w)
}
