// Package storage holds the thin boundary for avatar image storage. The
// API core only ever sees the returned URL; swapping in a cloud bucket or
// CDN is a matter of providing another AvatarStore.
package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// AvatarStore saves an uploaded avatar and returns its public URL.
type AvatarStore interface {
	Upload(ctx context.Context, email string, r io.Reader) (string, error)
}

// DiskAvatarStore writes avatars under Dir and serves them below BaseURL.
// Filenames are derived from the owner email so a re-upload overwrites the
// previous image instead of accumulating files.
type DiskAvatarStore struct {
	Dir     string
	BaseURL string
}

func NewDiskAvatarStore(dir, baseURL string) *DiskAvatarStore {
	return &DiskAvatarStore{Dir: dir, BaseURL: baseURL}
}

func (s *DiskAvatarStore) Upload(_ context.Context, email string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir avatars: %w", err)
	}
	sum := sha1.Sum([]byte(email))
	name := hex.EncodeToString(sum[:]) + ".img"

	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write avatar file: %w", err)
	}
	return s.BaseURL + "/" + name, nil
}
