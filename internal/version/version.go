// Package version carries build information for the wirehttp binary.
package version

// Set at build time:
// go build -ldflags "-X wirehttp/internal/version.Version=1.0.0 -X wirehttp/internal/version.Commit=abc123"
var (
	// Version is the semantic version of wirehttp
	Version = "0.3.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns the version, with a short commit when one is known
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return "wirehttp version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
