// Package biliupr installs and updates the biliupR command-line uploader from
// its GitHub releases.
//
// The flow is: decide whether a release query is needed, fetch the latest
// release, pick the archive for the running platform, download and extract it
// into a scratch directory inside the install directory, locate the binary,
// replace the installed copy and record what was installed in a JSON sidecar.
//
// Concurrent runs against the same install directory are not safe; callers
// serialize them (see internal/lockfile).
package biliupr

// Release describes one published release
type Release struct {
	TagName string  // Opaque version tag, compared only for equality
	HTMLURL string  // Browser URL of the release page
	Assets  []Asset // Downloadable files, in release order
}

// Asset is a single downloadable file attached to a release
type Asset struct {
	Name               string // Filename, e.g. "biliupR-v0.2.0-x86_64-linux.tar.xz"
	BrowserDownloadURL string // Direct download URL
}

// State describes the installed binary after EnsureInstalled or InstallRelease
type State struct {
	BinaryPath  string `json:"binary_path" yaml:"binary_path"`
	TagName     string `json:"tag_name" yaml:"tag_name"`
	AssetName   string `json:"asset_name" yaml:"asset_name"`
	DownloadURL string `json:"download_url" yaml:"download_url"`
	Installed   bool   `json:"installed" yaml:"installed"` // True when this call downloaded and replaced the binary
}

// UpdateCheck is the result of a check-only query against the latest release
type UpdateCheck struct {
	CurrentTag string   `json:"current_tag" yaml:"current_tag"`
	LatestTag  string   `json:"latest_tag" yaml:"latest_tag"`
	HasUpdate  bool     `json:"has_update" yaml:"has_update"`
	Release    *Release `json:"-" yaml:"-"` // The fetched release, reusable with InstallRelease
}

// EnsureOptions controls the update policy of EnsureInstalled.
type EnsureOptions struct {
	// Force reinstalls even when the recorded tag matches the latest release.
	Force bool
	// UpdateIfOutdated queries the latest release when a binary is already
	// present. When false and a binary exists, no network call is made.
	UpdateIfOutdated bool
}
