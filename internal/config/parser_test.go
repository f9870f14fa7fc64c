package config

import (
	"reflect"
	"strings"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		content  string
		expected Format
	}{
		{"yaml extension", "config.yaml", "", FormatYAML},
		{"yml extension", "config.yml", "", FormatYAML},
		{"toml extension", "config.toml", "", FormatTOML},
		{"json extension", "config.json", "", FormatJSON},
		{"json content", "config", `{"biliupr": {}}`, FormatJSON},
		{"yaml content", "config", "# comment\nbiliupr:\n  repo: a/b", FormatYAML},
		{"toml table", "config", "[biliupr]\nrepo = \"a/b\"", FormatTOML},
		{"toml key", "config", `timeout = 1`, FormatTOML},
		{"unknown", "config", `plain`, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFormat(tt.path, []byte(tt.content))
			if got != tt.expected {
				t.Errorf("detectFormat() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")
	t.Setenv("EMPTY_VAR", "")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple var", "${TEST_VAR}", "test_value"},
		{"var with default", "${MISSING_VAR:-default_value}", "default_value"},
		{"existing var ignores default", "${TEST_VAR:-default_value}", "test_value"},
		{"empty var uses default", "${EMPTY_VAR:-default_value}", "default_value"},
		{"no var", "plain text", "plain text"},
		{"mixed content", "prefix ${TEST_VAR} suffix", "prefix test_value suffix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(expandEnvVars([]byte(tt.input)))
			if got != tt.expected {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParse_Formats(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		content string
	}{
		{"yaml", FormatYAML, "biliupr:\n  repo: owner/name\n  check_timeout_sec: 5\n"},
		{"toml", FormatTOML, "[biliupr]\nrepo = \"owner/name\"\ncheck_timeout_sec = 5\n"},
		{"json", FormatJSON, `{"biliupr": {"repo": "owner/name", "check_timeout_sec": 5}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := parse([]byte(tt.content), tt.format)
			if err != nil {
				t.Fatalf("parse() error = %v", err)
			}
			cfg, err := decode(Merge(Defaults(), raw))
			if err != nil {
				t.Fatalf("decode() error = %v", err)
			}
			if cfg.Biliupr.Repo != "owner/name" {
				t.Errorf("Repo = %s, want owner/name", cfg.Biliupr.Repo)
			}
			if cfg.Biliupr.CheckTimeoutSec != 5 {
				t.Errorf("CheckTimeoutSec = %d, want 5", cfg.Biliupr.CheckTimeoutSec)
			}
			if cfg.Biliupr.InstallDir != "deps/biliupR" {
				t.Errorf("InstallDir default lost: %s", cfg.Biliupr.InstallDir)
			}
		})
	}
}

func TestParse_NotAMapping(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		content string
	}{
		{"yaml list", FormatYAML, "- a\n- b\n"},
		{"yaml scalar", FormatYAML, "just a string"},
		{"json list", FormatJSON, `[1, 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse([]byte(tt.content), tt.format)
			if err == nil || !strings.Contains(err.Error(), "mapping") {
				t.Errorf("parse() error = %v, want mapping error", err)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatTOML, FormatJSON} {
		raw, err := parse([]byte("  \n"), format)
		if err != nil {
			t.Errorf("parse(format %d) error = %v", format, err)
		}
		if len(raw) != 0 {
			t.Errorf("parse(format %d) = %v, want empty", format, raw)
		}
	}
}

func TestMerge(t *testing.T) {
	base := map[string]any{
		"network": map[string]any{"proxy": "", "timeout_sec": 20},
		"biliupr": map[string]any{"repo": "biliup/biliup", "auto_update": true},
		"list":    []any{"a"},
	}
	override := map[string]any{
		"network": map[string]any{"proxy": "http://127.0.0.1:7890"},
		"biliupr": "not a mapping",
		"extra":   1,
	}

	got := Merge(base, override)

	want := map[string]any{
		"network": map[string]any{"proxy": "http://127.0.0.1:7890", "timeout_sec": 20},
		"biliupr": "not a mapping",
		"list":    []any{"a"},
		"extra":   1,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}

	// Inputs are untouched.
	if base["network"].(map[string]any)["proxy"] != "" {
		t.Error("Merge mutated base")
	}
	if _, ok := base["extra"]; ok {
		t.Error("Merge added keys to base")
	}

	// Result does not alias base.
	got["network"].(map[string]any)["timeout_sec"] = 99
	got["list"].([]any)[0] = "changed"
	if base["network"].(map[string]any)["timeout_sec"] != 20 || base["list"].([]any)[0] != "a" {
		t.Error("Merge result aliases base")
	}
}

func TestMerge_MappingReplacesScalar(t *testing.T) {
	got := Merge(map[string]any{"a": 1}, map[string]any{"a": map[string]any{"b": 2}})
	if !reflect.DeepEqual(got["a"], map[string]any{"b": 2}) {
		t.Errorf("Merge() = %v", got)
	}
}

func TestMerge_NullKeepsBaseMapping(t *testing.T) {
	base := map[string]any{
		"biliupr": map[string]any{"repo": "biliup/biliup"},
		"name":    "x",
	}
	got := Merge(base, map[string]any{"biliupr": nil, "name": nil})

	if !reflect.DeepEqual(got["biliupr"], map[string]any{"repo": "biliup/biliup"}) {
		t.Errorf("biliupr = %v, want base mapping", got["biliupr"])
	}
	if got["name"] != nil {
		t.Errorf("name = %v, want nil for a scalar base", got["name"])
	}
}
