// Package version carries the build identifier injected at link time:
//
//	go build -ldflags "-X github.com/librarydesk/library-client/internal/version.Version=2026-10-18-1760780000"
//
// The identifier doubles as the session version marker, so every deploy
// that changes it invalidates sessions persisted by older builds.
package version

// Version is the build identifier. "dev" for unstamped builds.
var Version = "dev"

// Commit is the short git commit, when stamped.
var Commit = ""

// String renders the version with the commit when known.
func String() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
