package biliupr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultMetadataFile is the sidecar written next to the installed binary.
const DefaultMetadataFile = "installed.json"

// timestampLayout renders UTC as "+00:00", the ISO-8601 form the sidecar has
// always used.
const timestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Metadata is the sidecar record describing the installed release
type Metadata struct {
	Repo           string `json:"repo"` // Release page URL
	TagName        string `json:"tag_name"`
	AssetName      string `json:"asset_name"`
	DownloadURL    string `json:"download_url"`
	InstalledAtUTC string `json:"installed_at_utc"`
	Binary         string `json:"binary"`
}

// ReadMetadata loads the sidecar at dir/filename. A missing, unreadable or
// malformed sidecar reports ok=false, the same as never installed.
func ReadMetadata(dir, filename string) (meta Metadata, ok bool) {
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return Metadata{}, false
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Metadata{}, false
	}
	if err := json.Unmarshal(trimmed, &meta); err != nil {
		return Metadata{}, false
	}
	return meta, true
}

// WriteMetadata replaces the sidecar at dir/filename with meta. The record is
// written to a temp file in dir and renamed into place, so readers see either
// the previous sidecar or the new one.
func WriteMetadata(dir, filename string, meta Metadata) (err error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".installed-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp metadata file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing metadata: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing metadata: %w", err)
	}
	// CreateTemp opens with 0600.
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting metadata permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, filename)); err != nil {
		return fmt.Errorf("replacing metadata: %w", err)
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
