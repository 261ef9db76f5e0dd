package assets

import (
	"os"
	"path/filepath"

	"github.com/JasChiang/ai-video-writer-sub002/types"
)

// Store is the local video cache: one file per video id, reused across
// repeated screenshot extractions until the janitor reclaims it.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// Path returns where the cached copy of a video lives, existing or not.
func (s *Store) Path(videoID string) string {
	return filepath.Join(s.dir, videoID+".mp4")
}

// Lookup returns the cached asset for a video id, or (nil, false) when no
// usable copy exists. A missing file is simply a miss — the caller
// downloads a fresh copy, which supersedes the old one.
func (s *Store) Lookup(videoID string) (*types.LocalAsset, bool) {
	path := s.Path(videoID)
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return nil, false
	}
	return &types.LocalAsset{
		VideoID:   videoID,
		FilePath:  path,
		ModTime:   fi.ModTime(),
		SizeBytes: fi.Size(),
	}, true
}
