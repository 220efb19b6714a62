// Package version reports build information for the wporm binary.
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/satishbabariya/wporm/database"
)

// Set at build time with -ldflags "-X .../version.Version=...".
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
	GoVersion string
	Platform  string
	// Providers maps each supported provider to its database/sql driver.
	Providers []ProviderInfo
}

// ProviderInfo pairs a provider name with the driver that serves it.
type ProviderInfo struct {
	Name   database.Provider
	Driver string
}

// Get collects build and provider information.
func Get() Info {
	info := Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	for _, p := range database.Providers() {
		info.Providers = append(info.Providers, ProviderInfo{Name: p, Driver: p.DriverName()})
	}
	return info
}

func (i Info) String() string {
	return fmt.Sprintf("wporm %s (%s %s)", i.Version, i.Platform, i.GoVersion)
}

// Report renders the multi-line report printed by `wporm version`. server is
// the connected server's "provider version" and is omitted when empty.
func (i Info) Report(server string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "wporm %s\n", i.Version)
	fmt.Fprintf(&b, "Build: %s (%s)\n", i.GitCommit, i.BuildDate)
	fmt.Fprintf(&b, "Runtime: %s %s\n", i.GoVersion, i.Platform)

	names := make([]string, 0, len(i.Providers))
	for _, p := range i.Providers {
		names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.Driver))
	}
	fmt.Fprintf(&b, "Providers: %s", strings.Join(names, ", "))

	if server != "" {
		fmt.Fprintf(&b, "\nServer: %s", server)
	}
	return b.String()
}
