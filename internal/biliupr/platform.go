package biliupr

import (
	"fmt"
	"runtime"
	"strings"
)

const (
	binaryName        = "biliup"
	windowsBinaryName = "biliup.exe"
)

// Platform describes the system biliupR is installed for
type Platform struct {
	OS   string // Operating system (windows, darwin, linux)
	Arch string // Architecture; Go names (amd64, arm64) and uname names (x86_64, aarch64) both work
}

// Detect returns the current platform (OS and architecture)
func Detect() Platform {
	return Platform{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
}

func (p Platform) normalized() (string, string) {
	return strings.ToLower(strings.TrimSpace(p.OS)), strings.ToLower(strings.TrimSpace(p.Arch))
}

func (p Platform) String() string {
	system, machine := p.normalized()
	return fmt.Sprintf("system=%s, machine=%s", system, machine)
}

// IsWindows reports whether the platform is Windows
func (p Platform) IsWindows() bool {
	system, _ := p.normalized()
	return system == "windows"
}

// BinaryName returns the canonical filename of the installed binary,
// "biliup.exe" on Windows and "biliup" elsewhere
func (p Platform) BinaryName() string {
	if p.IsWindows() {
		return windowsBinaryName
	}
	return binaryName
}

// otherBinaryName is the canonical name on the opposite platform family.
// Archives that ship the wrong-named binary are still usable.
func (p Platform) otherBinaryName() string {
	if p.IsWindows() {
		return binaryName
	}
	return windowsBinaryName
}

// SuffixPriority returns the acceptable asset filename suffixes for this
// platform, most preferred first. Unsupported platforms are an InstallError.
func (p Platform) SuffixPriority() ([]string, error) {
	system, machine := p.normalized()

	switch system {
	case "windows":
		// Only x86_64 Windows packages are published.
		return []string{"-x86_64-windows.zip"}, nil

	case "darwin", "macos":
		if machine == "arm64" || machine == "aarch64" {
			return []string{"-aarch64-macos.tar.xz"}, nil
		}
		return []string{"-x86_64-macos.tar.xz"}, nil

	case "linux":
		switch {
		case machine == "x86_64" || machine == "amd64":
			return []string{"-x86_64-linux.tar.xz", "-x86_64-linux-musl.tar.xz"}, nil
		case machine == "aarch64" || machine == "arm64":
			return []string{"-aarch64-linux.tar.xz"}, nil
		case strings.HasPrefix(machine, "arm"):
			return []string{"-arm-linux.tar.xz"}, nil
		}
	}

	return nil, installErrorf("unsupported platform for biliupR: %s", p)
}

// IsSupported returns true if biliupR publishes an archive for this platform
func (p Platform) IsSupported() bool {
	_, err := p.SuffixPriority()
	return err == nil
}
