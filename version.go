// Package cellar is a control surface for the Homebrew package manager.
package cellar

// Version is the cellar release version.
const Version = "0.3.0"
