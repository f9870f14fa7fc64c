package biliupr

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// maxEntryBytes bounds a single extracted file (1 GiB).
const maxEntryBytes = 1 << 30

var (
	xzMagic    = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	gzipMagic  = []byte{0x1F, 0x8B}
	bzip2Magic = []byte("BZh")
)

// extractArchive unpacks archivePath into dest. The format is chosen by
// filename suffix only: ".zip" is a zip archive, ".tar.xz" and ".tar" are tar
// streams whose compression is detected from the stream header.
func extractArchive(archivePath, dest string) error {
	name := filepath.Base(archivePath)

	switch {
	case strings.HasSuffix(name, ".zip"):
		return extractZip(archivePath, dest)
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".tar"):
		return extractTar(archivePath, dest)
	}

	return installErrorf("unsupported archive format: %s", name)
}

func extractZip(archivePath, dest string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening zip archive: %w", err)
	}
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		target, err := entryPath(dest, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", f.Name, err)
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("opening zip entry %s: %w", f.Name, err)
		}
		err = writeEntry(target, rc, f.Mode().Perm())
		_ = rc.Close()
		if err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}
	}

	return nil
}

func extractTar(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening tar archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	stream, err := decompress(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(archivePath), err)
	}

	tr := tar.NewReader(stream)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		target, err := entryPath(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("extracting %s: %w", hdr.Name, err)
			}
		default:
			// Links and special files are never the binary.
		}
	}
}

// decompress wraps r in the decompressor matching its magic bytes. Plain tar
// streams are returned unchanged.
func decompress(r *bufio.Reader) (io.Reader, error) {
	head, err := r.Peek(len(xzMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(head, xzMagic):
		return xz.NewReader(r)
	case bytes.HasPrefix(head, gzipMagic):
		return gzip.NewReader(r)
	case bytes.HasPrefix(head, bzip2Magic):
		return bzip2.NewReader(r), nil
	}
	return r, nil
}

// entryPath joins an archive entry name onto dest, refusing names that would
// land outside it.
func entryPath(dest, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", installErrorf("archive entry %q escapes the extraction directory", name)
	}
	return filepath.Join(dest, cleaned), nil
}

func writeEntry(target string, r io.Reader, perm os.FileMode) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	n, err := io.Copy(out, io.LimitReader(r, maxEntryBytes+1))
	if err != nil {
		return err
	}
	if n > maxEntryBytes {
		return fmt.Errorf("entry exceeds %d bytes", int64(maxEntryBytes))
	}
	return nil
}
