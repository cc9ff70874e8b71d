// Package version reports the ml2mem release and the build it came from.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Release is the ml2mem release number.
const Release = "0.4.0"

// Revision is the source revision, set by the linker. When empty the
// revision recorded by the go command is used instead.
var Revision string

// Module is a module linked into the binary.
type Module struct {
	Path    string
	Version string
}

// Info describes one ml2mem binary.
type Info struct {
	Release   string
	Revision  string
	Modified  bool
	GoVersion string
	Main      Module
	Deps      []Module
}

// Current returns the Info of the running binary.
func Current() Info {
	info := Info{Release: Release, Revision: Revision, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.Main = Module{Path: bi.Main.Path, Version: bi.Main.Version}
	for _, dep := range bi.Deps {
		if dep.Replace != nil {
			dep = dep.Replace
		}
		info.Deps = append(info.Deps, Module{Path: dep.Path, Version: dep.Version})
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Revision == "" {
				info.Revision = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String returns the release and revision, e.g. "ml2mem 0.4.0 (abc123+dirty)".
func (i Info) String() string {
	rev := i.Revision
	if rev == "" {
		rev = "unknown revision"
	}
	if i.Modified {
		rev += "+dirty"
	}
	return fmt.Sprintf("ml2mem %s (%s)", i.Release, rev)
}

// Details lists the Go version and every linked module, one per line.
func (i Info) Details() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "go\t%s\n", i.GoVersion)
	if i.Main.Path != "" {
		fmt.Fprintf(&sb, "mod\t%s\t%s\n", i.Main.Path, i.Main.Version)
	}
	for _, dep := range i.Deps {
		fmt.Fprintf(&sb, "dep\t%s\t%s\n", dep.Path, dep.Version)
	}
	return sb.String()
}
