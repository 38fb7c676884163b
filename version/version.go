// Package version reports the version of the running binary.
package version

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
)

// Version returns the human and machine versions of the binary and
// reports whether they describe a known release. Unless human is a
// release, the versions are taken from the main module's build info.
func Version(human, machine string) (string, string, bool) {
	if human != "devel" {
		return human, machine, true
	}
	v, ok := buildInfoVersion()
	if ok {
		return v, v, false
	}
	return "devel", "", false
}

// Print writes the program's name and version to w.
func Print(w io.Writer, human, machine string) {
	human, machine, release := Version(human, machine)

	if release {
		fmt.Fprintf(w, "%s %s (%s)\n", filepath.Base(os.Args[0]), human, machine)
	} else if human == "devel" {
		fmt.Fprintf(w, "%s (no version)\n", filepath.Base(os.Args[0]))
	} else {
		fmt.Fprintf(w, "%s (devel, %s)\n", filepath.Base(os.Args[0]), machine)
	}
}

// Verbose is like Print, but also writes the Go version and the
// versions of all dependencies.
func Verbose(w io.Writer, human, machine string) {
	Print(w, human, machine)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Compiled with Go version:", runtime.Version())
	printBuildInfo(w)
}

func printBuildInfo(w io.Writer) {
	if info, ok := debug.ReadBuildInfo(); ok {
		fmt.Fprintln(w, "Main module:")
		printModule(w, &info.Main)
		fmt.Fprintln(w, "Dependencies:")
		for _, dep := range info.Deps {
			printModule(w, dep)
		}
	} else {
		fmt.Fprintln(w, "Built without Go modules")
	}
}

func buildInfoVersion() (string, bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	if info.Main.Version == "(devel)" || info.Main.Version == "" {
		return "", false
	}
	return info.Main.Version, true
}

func printModule(w io.Writer, m *debug.Module) {
	fmt.Fprintf(w, "\t%s", m.Path)
	if m.Version != "(devel)" {
		fmt.Fprintf(w, "@%s", m.Version)
	}
	if m.Sum != "" {
		fmt.Fprintf(w, " (sum: %s)", m.Sum)
	}
	if m.Replace != nil {
		fmt.Fprintf(w, " (replace: %s)", m.Replace.Path)
	}
	fmt.Fprintln(w)
}
