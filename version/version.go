package version

import (
	"fmt"
	"runtime"
)

// Version number set by the build
var Version = ""

// Commit id set by the build
var Commit = ""

// GlobalUserAgent is the useragent used by our http requests
var GlobalUserAgent = fmt.Sprintf("secretscout/%s (%s %s)", shortVersion(), runtime.GOOS, runtime.GOARCH)

// PrintVersion writes the build version information to stdout
func PrintVersion() {
	if len(Version) > 0 {
		fmt.Printf("Version: %v\n", Version)

		if len(Commit) > 0 {
			fmt.Printf("Commit: %v\n", Commit)
		}
	} else {
		fmt.Println("Version information not available")
	}
}

func shortVersion() string {
	if len(Version) > 0 {
		if len(Commit) > 0 {
			return Version + "@" + Commit
		}
		return Version
	}
	return "unknown"
}

// UserAgent returns the useragent string for this build
func UserAgent() string {
	return GlobalUserAgent
}
