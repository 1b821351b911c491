package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mahmoudev/blog-service/internal/apperrors"
)

func newTestImages(t *testing.T) *Images {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	s, err := NewImages(t.TempDir(), log)
	if err != nil {
		t.Fatalf("NewImages error: %v", err)
	}
	return s
}

func TestStageAndPromote(t *testing.T) {
	t.Parallel()

	s := newTestImages(t)

	staged, err := s.Stage(strings.NewReader("fake png bytes"), "image/png")
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}
	if _, err := os.Stat(staged); err != nil {
		t.Fatalf("staged file missing: %v", err)
	}

	url, err := s.Promote(staged, "post-1")
	if err != nil {
		t.Fatalf("Promote error: %v", err)
	}
	if url != "images/post-1.png" {
		t.Fatalf("unexpected image URL: %q", url)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatalf("staged file should be gone after promote")
	}
	if _, err := os.Stat(filepath.Join(s.baseDir, "images", "post-1.png")); err != nil {
		t.Fatalf("promoted file missing: %v", err)
	}
}

func TestStageRejectsNonImage(t *testing.T) {
	t.Parallel()

	s := newTestImages(t)

	_, err := s.Stage(strings.NewReader("#!/bin/sh"), "application/x-sh")
	var ve *apperrors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := ve.Fields["image"]; !ok {
		t.Fatalf("expected image field message, got %v", ve.Fields)
	}
}

func TestPromoteReplacesStaleExtension(t *testing.T) {
	t.Parallel()

	s := newTestImages(t)

	staged, err := s.Stage(strings.NewReader("png"), "image/png")
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}
	if _, err := s.Promote(staged, "post-2"); err != nil {
		t.Fatalf("Promote error: %v", err)
	}

	staged, err = s.Stage(strings.NewReader("jpeg"), "image/jpeg")
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}
	url, err := s.Promote(staged, "post-2")
	if err != nil {
		t.Fatalf("Promote error: %v", err)
	}
	if url != "images/post-2.jpg" {
		t.Fatalf("unexpected image URL: %q", url)
	}
	if _, err := os.Stat(filepath.Join(s.baseDir, "images", "post-2.png")); !os.IsNotExist(err) {
		t.Fatalf("stale png should have been removed")
	}
}

func TestPromoteRejectsPathOutsideStaging(t *testing.T) {
	t.Parallel()

	s := newTestImages(t)

	// A server file that was never staged must not be publishable.
	outside := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(outside, []byte("db password"), 0o600); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	_, err := s.Promote(outside, "attacker-post")
	var ve *apperrors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for path outside staging, got %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("original file must be untouched: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.baseDir, "images", "attacker-post.txt")); !os.IsNotExist(err) {
		t.Fatal("nothing may be published for a rejected path")
	}

	// Traversal through the staging directory is refused too.
	traversal := filepath.Join(s.baseDir, "tmp") + string(filepath.Separator) + ".." + string(filepath.Separator) + "escape.png"
	if _, err := s.Promote(traversal, "attacker-post"); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for traversal path, got %v", err)
	}

	// The staging directory itself is not a staged file.
	if _, err := s.Promote(filepath.Join(s.baseDir, "tmp"), "attacker-post"); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for the staging dir itself, got %v", err)
	}
}

func TestDiscardIgnoresPathOutsideStaging(t *testing.T) {
	t.Parallel()

	s := newTestImages(t)

	outside := filepath.Join(t.TempDir(), "keep.txt")
	if err := os.WriteFile(outside, []byte("keep me"), 0o600); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	s.Discard(outside)
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("Discard must not touch files outside staging: %v", err)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	s := newTestImages(t)

	staged, _ := s.Stage(strings.NewReader("gif"), "image/gif")
	url, err := s.Promote(staged, "post-3")
	if err != nil {
		t.Fatalf("Promote error: %v", err)
	}

	if err := s.Remove(url); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if err := s.Remove(url); err == nil {
		t.Fatal("expected error removing missing file")
	}
	if err := s.Remove(""); err != nil {
		t.Fatalf("Remove of empty URL should be a no-op, got %v", err)
	}
}

func TestSweepStaged(t *testing.T) {
	t.Parallel()

	s := newTestImages(t)

	old, err := s.Stage(strings.NewReader("old"), "image/png")
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatalf("Chtimes error: %v", err)
	}

	fresh, err := s.Stage(strings.NewReader("fresh"), "image/png")
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}

	removed, err := s.SweepStaged(time.Hour)
	if err != nil {
		t.Fatalf("SweepStaged error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("stale staged file should be gone")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh staged file should remain: %v", err)
	}
}
