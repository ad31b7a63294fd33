// Package version reports the build identity of the audio device tools.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X .../internal/version.Version=...".
var (
	Name      = "stellar-audio"
	Version   = "0.1.0"
	BuildTime = ""
	GitCommit = ""
)

// Info is the build identity.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	BuildTime string `json:"buildTime,omitempty"`
	GitCommit string `json:"gitCommit,omitempty"`
}

// GetInfo returns the current build identity.
func GetInfo() Info {
	return Info{
		Name:      Name,
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}
}

// String renders "name vX.Y.Z (commit) built T" for banners.
func (i Info) String() string {
	s := fmt.Sprintf("%s v%s", i.Name, i.Version)
	if i.GitCommit != "" {
		s += fmt.Sprintf(" (%s)", shortCommit(i.GitCommit))
	}
	if i.BuildTime != "" {
		s += " built " + i.BuildTime
	}
	return s
}

// UserAgent renders the identity as an HTTP User-Agent product token.
func (i Info) UserAgent() string {
	ua := i.Name + "/" + i.Version
	if i.GitCommit != "" {
		ua += "+" + shortCommit(i.GitCommit)
	}
	return fmt.Sprintf("%s (%s/%s)", ua, runtime.GOOS, runtime.GOARCH)
}

func shortCommit(c string) string {
	return c[:min(7, len(c))]
}
