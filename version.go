// Package decpomdp provides the version information for decpomdp-go.
package decpomdp

// Version is the current version of decpomdp-go.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
