package biliupr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
)

// downloadChunkSize is the read size for streaming asset downloads.
const downloadChunkSize = 128 << 10

// download streams url to dst in fixed-size chunks and returns the number of
// bytes written. Each chunk read is bounded by the installer timeout so a
// stalled connection fails instead of hanging.
func (i *Installer) download(ctx context.Context, url, dst string) (n int64, err error) {
	resp, err := i.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return 0, err
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	if !isSuccess(resp.StatusCode()) {
		return 0, &StatusError{URL: url, StatusCode: resp.StatusCode(), Status: resp.Status()}
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", filepath.Base(dst), err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	var w io.Writer = f
	if i.progress != nil {
		bar := newProgressBar(i.progress, contentLength(resp.RawResponse), filepath.Base(dst))
		defer func() { _ = bar.Finish() }()
		w = io.MultiWriter(f, bar)
	}

	buf := make([]byte, downloadChunkSize)
	for {
		chunk, readErr := readWithTimeout(ctx, body, buf, i.timeout)
		if chunk > 0 {
			if _, err := w.Write(buf[:chunk]); err != nil {
				return n, fmt.Errorf("writing %s: %w", filepath.Base(dst), err)
			}
			n += int64(chunk)
		}
		if errors.Is(readErr, io.EOF) {
			return n, nil
		}
		if readErr != nil {
			return n, readErr
		}
	}
}

// readWithTimeout performs one Read on r, giving up after timeout. The
// response body is closed by the caller on return, which unblocks a Read
// that is still pending.
func readWithTimeout(ctx context.Context, r io.Reader, buf []byte, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := r.Read(buf)
		done <- result{n, err}
	}()

	select {
	case res := <-done:
		return res.n, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func contentLength(resp *http.Response) int64 {
	if resp == nil {
		return -1
	}
	return resp.ContentLength
}

func newProgressBar(w io.Writer, total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(w) }),
		progressbar.OptionSpinnerType(14),
	)
}
