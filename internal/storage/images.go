// Package storage manages post image files on local disk. Uploads land in a
// staging directory first and are renamed into place only after the owning
// record is persisted; renames are not transactional with the database.
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mahmoudev/blog-service/internal/apperrors"
)

// allowedImageMimes lists the accepted upload content types.
var allowedImageMimes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

const (
	stagingDir = "tmp"
	imagesDir  = "images"
)

// Images stores staged and final post images under a single base directory.
type Images struct {
	baseDir string
	log     *logrus.Logger
}

// NewImages creates the staging and final directories if needed.
func NewImages(baseDir string, log *logrus.Logger) (*Images, error) {
	for _, dir := range []string{stagingDir, imagesDir} {
		if err := os.MkdirAll(filepath.Join(baseDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
	}
	return &Images{baseDir: baseDir, log: log}, nil
}

// Stage writes an uploaded file into the staging directory and returns its
// path. The content type must be an allowed image MIME type.
func (s *Images) Stage(r io.Reader, contentType string) (string, error) {
	ext, ok := allowedImageMimes[contentType]
	if !ok {
		return "", apperrors.NewValidation("image", "unsupported image type %q", contentType)
	}

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	path := filepath.Join(s.baseDir, stagingDir, hex.EncodeToString(buf)+ext)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to stage upload: %v", apperrors.ErrStorage, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: failed to stage upload: %v", apperrors.ErrStorage, err)
	}
	return path, nil
}

// withinStaging reports whether path resolves to a file inside the staging
// directory. Staged paths round-trip through clients (the GraphQL mutations
// take them as arguments), so Promote and Discard must refuse anything Stage
// could not have produced.
func (s *Images) withinStaging(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	root, err := filepath.Abs(filepath.Join(s.baseDir, stagingDir))
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// URLFor returns the URL path a staged file will have once promoted for
// postID. Deterministic, so records can be written before the rename.
func (s *Images) URLFor(stagedPath, postID string) string {
	return imagesDir + "/" + postID + filepath.Ext(stagedPath)
}

// Promote renames a staged file into its final location, keyed by the post
// id. Any previously promoted file for the same post with a different
// extension is removed so edits do not accumulate stale images. Returns the
// URL path stored on the post record.
func (s *Images) Promote(stagedPath, postID string) (string, error) {
	if !s.withinStaging(stagedPath) {
		return "", apperrors.NewValidation("image", "unknown staged image")
	}

	ext := filepath.Ext(stagedPath)
	final := filepath.Join(s.baseDir, imagesDir, postID+ext)

	stale, _ := filepath.Glob(filepath.Join(s.baseDir, imagesDir, postID+".*"))
	for _, old := range stale {
		if old == final {
			continue
		}
		if err := os.Remove(old); err != nil {
			s.log.Warnf("failed to remove stale image %s: %v", old, err)
		}
	}

	if err := os.Rename(stagedPath, final); err != nil {
		return "", fmt.Errorf("%w: failed to promote image: %v", apperrors.ErrStorage, err)
	}
	return imagesDir + "/" + postID + ext, nil
}

// Remove deletes a promoted image by its stored URL path.
func (s *Images) Remove(imageURL string) error {
	if imageURL == "" {
		return nil
	}
	rel := filepath.FromSlash(strings.TrimPrefix(imageURL, "/"))
	if err := os.Remove(filepath.Join(s.baseDir, rel)); err != nil {
		return fmt.Errorf("%w: failed to remove image: %v", apperrors.ErrStorage, err)
	}
	return nil
}

// Discard removes a staged upload, best effort. Failures are logged only.
func (s *Images) Discard(stagedPath string) {
	if stagedPath == "" || !s.withinStaging(stagedPath) {
		return
	}
	if err := os.Remove(stagedPath); err != nil && !os.IsNotExist(err) {
		s.log.Warnf("failed to discard staged upload %s: %v", stagedPath, err)
	}
}

// SweepStaged removes staged uploads older than maxAge. Run periodically to
// bound the window in which abandoned uploads can accumulate.
func (s *Images) SweepStaged(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, stagingDir))
	if err != nil {
		return 0, fmt.Errorf("failed to read staging directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.baseDir, stagingDir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.log.Warnf("failed to sweep staged upload %s: %v", path, err)
			continue
		}
		removed++
	}
	return removed, nil
}
