package biliupr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseRelease(t *testing.T) {
	body := []byte(`{
		"tag_name": "v0.2.3",
		"html_url": "https://github.com/biliup/biliup/releases/tag/v0.2.3",
		"assets": [
			{"name": "biliupR-v0.2.3-x86_64-linux.tar.xz", "browser_download_url": "https://example.invalid/a"},
			"not an object",
			{"name": "bbup-v0.2.3-x86_64-linux.tar.xz", "browser_download_url": "https://example.invalid/b"}
		]
	}`)

	release, err := parseRelease(body)
	if err != nil {
		t.Fatalf("parseRelease() error = %v", err)
	}
	if release.TagName != "v0.2.3" {
		t.Errorf("TagName = %s, want v0.2.3", release.TagName)
	}
	if release.HTMLURL != "https://github.com/biliup/biliup/releases/tag/v0.2.3" {
		t.Errorf("HTMLURL = %s", release.HTMLURL)
	}
	if len(release.Assets) != 2 {
		t.Fatalf("Assets count = %d, want 2", len(release.Assets))
	}
	if release.Assets[0].BrowserDownloadURL != "https://example.invalid/a" {
		t.Errorf("Assets[0].BrowserDownloadURL = %s", release.Assets[0].BrowserDownloadURL)
	}
}

func TestParseRelease_TagName(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string", `{"tag_name": "v0.2.3"}`, "v0.2.3"},
		{"number", `{"tag_name": 3}`, "3"},
		{"float", `{"tag_name": 0.2}`, "0.2"},
		{"null", `{"tag_name": null}`, ""},
		{"absent", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			release, err := parseRelease([]byte(tt.body))
			if err != nil {
				t.Fatalf("parseRelease() error = %v", err)
			}
			if release.TagName != tt.want {
				t.Errorf("TagName = %q, want %q", release.TagName, tt.want)
			}
		})
	}
}

func TestParseRelease_NotAnObject(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"list", `[{"tag_name": "v1"}]`},
		{"string", `"v1"`},
		{"number", `42`},
		{"null", `null`},
		{"empty", ``},
		{"invalid", `{not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRelease([]byte(tt.body))
			var ie *InstallError
			if !errors.As(err, &ie) {
				t.Errorf("expected InstallError, got %v", err)
			}
		})
	}
}

func TestParseRelease_AssetsNotAList(t *testing.T) {
	_, err := parseRelease([]byte(`{"tag_name": "v1", "assets": {"name": "x"}}`))
	var ie *InstallError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InstallError, got %v", err)
	}
}

func TestParseRelease_NoAssets(t *testing.T) {
	release, err := parseRelease([]byte(`{"tag_name": "v1"}`))
	if err != nil {
		t.Fatalf("parseRelease() error = %v", err)
	}
	if len(release.Assets) != 0 {
		t.Errorf("Assets count = %d, want 0", len(release.Assets))
	}
}

func TestLatestRelease_Headers(t *testing.T) {
	var gotAccept, gotUA, gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"tag_name": "v1.0", "assets": []}`))
	}))
	defer server.Close()

	inst := New(t.TempDir(), WithBaseURL(server.URL+"/"), WithRepo("owner/name"), WithToken("ghp_test123"))
	release, err := inst.LatestRelease(context.Background())
	if err != nil {
		t.Fatalf("LatestRelease() error = %v", err)
	}

	if release.TagName != "v1.0" {
		t.Errorf("TagName = %s, want v1.0", release.TagName)
	}
	if gotPath != "/repos/owner/name/releases/latest" {
		t.Errorf("path = %s", gotPath)
	}
	if gotAccept != "application/vnd.github+json" {
		t.Errorf("Accept = %s", gotAccept)
	}
	if gotUA != UserAgent {
		t.Errorf("User-Agent = %s, want %s", gotUA, UserAgent)
	}
	if gotAuth != "Bearer ghp_test123" {
		t.Errorf("Authorization = %s", gotAuth)
	}
}

func TestLatestRelease_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	inst := New(t.TempDir(), WithBaseURL(server.URL))
	_, err := inst.LatestRelease(context.Background())

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", se.StatusCode)
	}
	var ie *InstallError
	if errors.As(err, &ie) {
		t.Error("HTTP errors must not be InstallError")
	}
}

func TestLatestRelease_ListPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	inst := New(t.TempDir(), WithBaseURL(server.URL))
	_, err := inst.LatestRelease(context.Background())

	var ie *InstallError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InstallError, got %v", err)
	}
}

func TestLatestRelease_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	inst := New(t.TempDir(), WithBaseURL(server.URL), WithTimeout(100*time.Millisecond))
	_, err := inst.LatestRelease(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}

	var ie *InstallError
	if errors.As(err, &ie) {
		t.Error("timeouts must not be InstallError")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Error("timeouts must not be StatusError")
	}
}

func TestLatestRelease_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	inst := New(t.TempDir(), WithBaseURL(url), WithTimeout(2*time.Second))
	_, err := inst.LatestRelease(context.Background())
	if err == nil {
		t.Fatal("expected connection error")
	}
	var ie *InstallError
	if errors.As(err, &ie) {
		t.Error("transport errors must not be InstallError")
	}
}
