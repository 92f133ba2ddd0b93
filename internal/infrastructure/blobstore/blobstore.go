// Package blobstore is a local-filesystem implementation of the handler
// package's BlobStore contract: media lands under
// media/{node_id}/{generation_id}/, images get a thumbnail scaled down to
// fit within 200x200 (aspect ratio kept; smaller images are not enlarged), and
// text results are inlined into their URL fields.
package blobstore

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/duragraph/mediagraph/internal/domain/media"
)

// Store persists generated media under basePath/media/{node_id}/{generation_id}/.
type Store struct {
	basePath string
}

func New(basePath string) (*Store, error) {
	mediaDir := filepath.Join(basePath, "media")
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create media dir: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

func (s *Store) mediaDir() string { return filepath.Join(s.basePath, "media") }

func genID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:6])
}

func (s *Store) genDir(nodeID, genID string) string {
	return filepath.Join(s.mediaDir(), nodeID, genID)
}

func (s *Store) UploadImage(ctx context.Context, nodeID string, data []byte, format string) (media.MediaUrls, error) {
	gid := genID()
	dir := s.genDir(nodeID, gid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return media.MediaUrls{}, err
	}
	if err := os.WriteFile(filepath.Join(dir, "original."+format), data, 0o644); err != nil {
		return media.MediaUrls{}, err
	}

	thumb, err := thumbnail(data, 200, 200)
	if err != nil {
		// A source image in a format the stdlib decoder can't handle still
		// gets uploaded; it just has no thumbnail.
		thumb = nil
	}
	if thumb != nil {
		if err := os.WriteFile(filepath.Join(dir, "thumbnail.jpg"), thumb, 0o644); err != nil {
			return media.MediaUrls{}, err
		}
	}

	base := fmt.Sprintf("/media/%s/%s", nodeID, gid)
	urls := media.MediaUrls{Original: base + "/original." + format}
	if thumb != nil {
		urls.Thumbnail = base + "/thumbnail.jpg"
	} else {
		urls.Thumbnail = urls.Original
	}
	return urls, nil
}

func (s *Store) UploadVideo(ctx context.Context, nodeID string, data []byte, format string) (media.MediaUrls, error) {
	return s.uploadRaw(nodeID, data, format)
}

func (s *Store) UploadAudio(ctx context.Context, nodeID string, data []byte, format string) (media.MediaUrls, error) {
	return s.uploadRaw(nodeID, data, format)
}

// uploadRaw writes bytes as-is with no thumbnail, used for video and audio:
// both media types' "thumbnail" URL points at the original file since
// there's no separate preview asset.
func (s *Store) uploadRaw(nodeID string, data []byte, format string) (media.MediaUrls, error) {
	gid := genID()
	dir := s.genDir(nodeID, gid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return media.MediaUrls{}, err
	}
	path := filepath.Join(dir, "original."+format)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return media.MediaUrls{}, err
	}
	base := fmt.Sprintf("/media/%s/%s/original.%s", nodeID, gid, format)
	return media.MediaUrls{Original: base, Thumbnail: base}, nil
}

// UploadText inlines the text directly into both URL fields instead of
// writing a fetchable file path, so the input resolver never needs a
// second round trip to read a text result; a copy is still written to disk
// for audit/debugging purposes.
func (s *Store) UploadText(ctx context.Context, nodeID string, text string) (media.MediaUrls, error) {
	gid := genID()
	dir := s.genDir(nodeID, gid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return media.MediaUrls{}, err
	}
	if err := os.WriteFile(filepath.Join(dir, "output.txt"), []byte(text), 0o644); err != nil {
		return media.MediaUrls{}, err
	}
	return media.MediaUrls{Original: text, Thumbnail: text}, nil
}

// ReadMediaBytes reads the original file behind a "/media/..." URL. It
// returns an error for text results (which carry their content inline, not
// a path) — the input resolver never calls this for MediaTypeText sources.
func (s *Store) ReadMediaBytes(ctx context.Context, url string) ([]byte, error) {
	const marker = "/media/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return nil, fmt.Errorf("blobstore: not a media url: %q", url)
	}
	rel := url[idx+len(marker):]
	return os.ReadFile(filepath.Join(s.mediaDir(), rel))
}

func (s *Store) DeleteNodeMedia(ctx context.Context, nodeID string) error {
	dir := filepath.Join(s.mediaDir(), nodeID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(dir)
}

func (s *Store) DuplicateNodeMedia(ctx context.Context, sourceNodeID, targetNodeID string) error {
	src := filepath.Join(s.mediaDir(), sourceNodeID)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	dst := filepath.Join(s.mediaDir(), targetNodeID)
	return copyTree(src, dst)
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
