// Package version holds the build version recorded in new database files.
package version

import "github.com/maloquacious/semver"

// Current is the version of this build. It is written to the app_metadata
// row at initialization and after upgrades; it is distinct from the schema
// version stored in the file header.
var Current = semver.Version{Minor: 1, Build: semver.Commit()}

// String returns the semantic version string of this build.
func String() string {
	return Current.String()
}
