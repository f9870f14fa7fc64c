package biliupr

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/ulikunitz/xz"
)

// archiveFile is one entry written by the archive builders.
type archiveFile struct {
	name string
	body string
	mode int64
}

func writeTar(t *testing.T, buf *bytes.Buffer, files []archiveFile) {
	t.Helper()
	tw := tar.NewWriter(buf)
	for _, f := range files {
		mode := f.mode
		if mode == 0 {
			mode = 0o644
		}
		hdr := &tar.Header{
			Name:     f.name,
			Mode:     mode,
			Size:     int64(len(f.body)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		if _, err := tw.Write([]byte(f.body)); err != nil {
			t.Fatalf("tar write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
}

func buildTar(t *testing.T, files ...archiveFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	writeTar(t, &buf, files)
	return buf.Bytes()
}

func buildTarXz(t *testing.T, files ...archiveFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("xz writer: %v", err)
	}
	if _, err := xw.Write(buildTar(t, files...)); err != nil {
		t.Fatalf("xz write: %v", err)
	}
	if err := xw.Close(); err != nil {
		t.Fatalf("xz close: %v", err)
	}
	return buf.Bytes()
}

func buildTarGz(t *testing.T, files ...archiveFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(buildTar(t, files...)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func buildZip(t *testing.T, files ...archiveFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(f.body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// releaseServer is a fake releases API that also serves asset downloads.
type releaseServer struct {
	*httptest.Server
	tag           string
	archives      map[string][]byte // asset name -> archive bytes
	extraAssets   []string          // listed but not downloadable
	releaseHits   atomic.Int32
	downloadHits  atomic.Int32
	downloadCode  int
	lastUserAgent atomic.Value
}

func newReleaseServer(t *testing.T, tag string, archives map[string][]byte, extra ...string) *releaseServer {
	t.Helper()
	rs := &releaseServer{tag: tag, archives: archives, extraAssets: extra}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/biliup/biliup/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		rs.releaseHits.Add(1)
		rs.lastUserAgent.Store(r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, rs.releaseJSON())
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		rs.downloadHits.Add(1)
		if rs.downloadCode != 0 {
			w.WriteHeader(rs.downloadCode)
			return
		}
		name := r.URL.Path[len("/download/"):]
		data, ok := rs.archives[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	})

	rs.Server = httptest.NewServer(mux)
	t.Cleanup(rs.Close)
	return rs
}

func (rs *releaseServer) releaseJSON() string {
	names := make([]string, 0, len(rs.archives)+len(rs.extraAssets))
	for name := range rs.archives {
		names = append(names, name)
	}
	sort.Strings(names)
	names = append(names, rs.extraAssets...)

	var assets bytes.Buffer
	for i, name := range names {
		if i > 0 {
			assets.WriteString(",")
		}
		fmt.Fprintf(&assets, `{"name":%q,"browser_download_url":%q}`, name, rs.URL+"/download/"+name)
	}
	return fmt.Sprintf(`{"tag_name":%q,"html_url":"https://github.com/biliup/biliup/releases/tag/%s","assets":[%s]}`,
		rs.tag, rs.tag, assets.String())
}

var linuxAmd64 = Platform{OS: "linux", Arch: "x86_64"}

func newTestInstaller(rs *releaseServer, dir string, opts ...Option) *Installer {
	base := []Option{WithBaseURL(rs.URL), WithPlatform(linuxAmd64)}
	return New(dir, append(base, opts...)...)
}
