package blob

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store is the blob storage the pipeline depends on. Paths are opaque to the
// store; callers build them with RawPath/OutputPath.
type Store interface {
	Download(ctx context.Context, bucket, path string) ([]byte, error)
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	SignedDownloadURL(bucket, path string, ttl time.Duration) (string, error)
}

// Config holds filesystem store configuration
type Config struct {
	Root          string // directory holding one subdirectory per bucket
	BaseURL       string // public base URL for signed download links
	SigningSecret string
}

// FSStore stores blobs on the local filesystem, one directory per bucket.
// Signed download URLs carry an HMAC over bucket, path and expiry, verified
// by the download endpoint.
type FSStore struct {
	root    string
	baseURL string
	secret  []byte
	logger  *slog.Logger
}

// NewFSStore creates a filesystem-backed blob store
func NewFSStore(cfg *Config, logger *slog.Logger) (*FSStore, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("blob storage root is required")
	}
	if cfg.SigningSecret == "" {
		return nil, fmt.Errorf("blob signing secret is required")
	}

	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob storage root: %w", err)
	}

	return &FSStore{
		root:    cfg.Root,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		secret:  []byte(cfg.SigningSecret),
		logger:  logger,
	}, nil
}

// localPath resolves bucket/path below the store root, rejecting anything
// that would escape it.
func (s *FSStore) localPath(bucket, path string) (string, error) {
	full := filepath.Join(s.root, bucket, filepath.FromSlash(path))
	clean := filepath.Clean(full)
	if !strings.HasPrefix(clean, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("blob path escapes storage root: %q", path)
	}
	return clean, nil
}

// Download reads a blob's bytes
func (s *FSStore) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	local, err := s.localPath(bucket, path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(local)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob %s/%s: %w", bucket, path, err)
	}

	s.logger.Debug("Blob downloaded",
		slog.String("bucket", bucket),
		slog.String("path", path),
		slog.Int("size", len(data)),
	)

	return data, nil
}

// Upload writes a blob's bytes, creating parent directories as needed.
// Existing blobs are overwritten (upsert semantics).
func (s *FSStore) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	local, err := s.localPath(bucket, path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	if err := os.WriteFile(local, data, 0o644); err != nil {
		return fmt.Errorf("failed to upload blob %s/%s: %w", bucket, path, err)
	}

	s.logger.Debug("Blob uploaded",
		slog.String("bucket", bucket),
		slog.String("path", path),
		slog.Int("size", len(data)),
		slog.String("content_type", contentType),
	)

	return nil
}

// SignedDownloadURL returns a time-limited URL for fetching a blob through
// the HTTP boundary.
func (s *FSStore) SignedDownloadURL(bucket, path string, ttl time.Duration) (string, error) {
	if _, err := s.localPath(bucket, path); err != nil {
		return "", err
	}

	expires := time.Now().Add(ttl).Unix()
	sig := s.sign(bucket, path, expires)

	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", sig)

	return fmt.Sprintf("%s/blobs/%s/%s?%s", s.baseURL, bucket, path, q.Encode()), nil
}

// VerifySignature checks a signed download URL's signature and expiry.
func (s *FSStore) VerifySignature(bucket, path string, expires int64, sig string) bool {
	if time.Now().Unix() > expires {
		return false
	}
	expected := s.sign(bucket, path, expires)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (s *FSStore) sign(bucket, path string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%s\n%d", bucket, path, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
