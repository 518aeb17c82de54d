package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/logger"
)

const (
	tempPattern = "resume-*"
	tempSubdir  = "job-matcher-resumes"
)

// ResumeFetcher copies a resume binary from its storage location into a
// local temp file.
type ResumeFetcher struct {
	client   *resty.Client
	tmpDir   string
	maxBytes int64
	log      *zap.Logger
}

// NewResumeFetcher writes into tmpDir. An empty tmpDir, or the shared system
// temp dir itself, is replaced by a subdirectory owned by this process so
// SweepStale never touches other programs' files.
func NewResumeFetcher(tmpDir string, maxBytes int64, timeout time.Duration, log *zap.Logger) *ResumeFetcher {
	if tmpDir == "" || filepath.Clean(tmpDir) == filepath.Clean(os.TempDir()) {
		tmpDir = filepath.Join(os.TempDir(), tempSubdir)
	}
	return &ResumeFetcher{
		client:   resty.New().SetTimeout(timeout),
		tmpDir:   tmpDir,
		maxBytes: maxBytes,
		log:      logger.OrNop(log),
	}
}

// Fetch downloads location into a temp file. The returned cleanup removes it
// and is safe to call more than once; it is a no-op when err != nil.
func (f *ResumeFetcher) Fetch(ctx context.Context, location string) (string, func(), error) {
	noop := func() {}

	if err := os.MkdirAll(f.tmpDir, 0o700); err != nil {
		return "", noop, fmt.Errorf("create temp dir: %w", err)
	}
	tmp, err := os.CreateTemp(f.tmpDir, tempPattern+extensionOf(location))
	if err != nil {
		return "", noop, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			f.log.Warn("failed to remove resume temp file", zap.String("path", tmpPath), zap.Error(rmErr))
		}
	}

	src, err := f.open(ctx, location)
	if err == nil {
		err = f.copyLimited(tmp, src)
		src.Close()
	}
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close temp file: %w", closeErr)
	}
	if err != nil {
		cleanup()
		return "", noop, err
	}
	return tmpPath, cleanup, nil
}

func (f *ResumeFetcher) open(ctx context.Context, location string) (io.ReadCloser, error) {
	u, err := url.Parse(location)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		p := location
		if err == nil && u.Scheme == "file" {
			p = u.Path
		}
		file, openErr := os.Open(p)
		if os.IsNotExist(openErr) {
			return nil, fmt.Errorf("resume file %s: %w", p, errs.ErrSourceDeleted)
		}
		return file, openErr
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(location)
	if err != nil {
		return nil, fmt.Errorf("%w: download resume: %w", errs.ErrProviderUnavailable, err)
	}
	body := resp.RawBody()
	switch code := resp.StatusCode(); {
	case code == 404 || code == 410:
		body.Close()
		return nil, fmt.Errorf("download resume: status %d: %w", code, errs.ErrSourceDeleted)
	case isTransientStatus(code):
		body.Close()
		return nil, fmt.Errorf("%w: download resume: status %d", errs.ErrProviderUnavailable, code)
	case code >= 400:
		body.Close()
		return nil, fmt.Errorf("download resume: status %d", code)
	}
	return body, nil
}

func (f *ResumeFetcher) copyLimited(dst io.Writer, src io.Reader) error {
	if f.maxBytes <= 0 {
		_, err := io.Copy(dst, src)
		return err
	}
	n, err := io.Copy(dst, io.LimitReader(src, f.maxBytes+1))
	if err != nil {
		return fmt.Errorf("copy resume: %w", err)
	}
	if n > f.maxBytes {
		return fmt.Errorf("resume exceeds %d bytes: %w", f.maxBytes, errs.ErrInvalidInput)
	}
	return nil
}

// SweepStale removes resume temp files older than age, left behind by
// processes that were killed mid-task.
func (f *ResumeFetcher) SweepStale(age time.Duration) int {
	matches, err := filepath.Glob(filepath.Join(f.tmpDir, tempPattern))
	if err != nil {
		return 0
	}
	removed := 0
	cutoff := time.Now().Add(-age)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if os.Remove(m) == nil {
			removed++
		}
	}
	if removed > 0 {
		f.log.Info("removed stale resume temp files", zap.Int("count", removed))
	}
	return removed
}

func extensionOf(location string) string {
	p := location
	if u, err := url.Parse(location); err == nil && u.Path != "" {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	switch ext {
	case ".pdf", ".docx", ".txt":
		return ext
	}
	return ""
}
