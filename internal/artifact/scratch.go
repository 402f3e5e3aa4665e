package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/trunov/stickerbot/internal/entities"
)

const (
	SourcePrefix  = "received-image-"
	StickerPrefix = "sticker-"

	DefaultSourceExt = ".jpg"
	StickerExt       = ".webp"
)

// Scratch is the directory holding transient artifacts.
type Scratch struct {
	dir string

	mu    sync.Mutex
	ready bool
}

func NewScratch(dir string) *Scratch {
	return &Scratch{dir: dir}
}

func (s *Scratch) Dir() string { return s.dir }

// Ensure creates the directory on first use. Concurrent callers block on the
// first creation; a failed attempt is retried by the next caller.
func (s *Scratch) Ensure() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create scratch dir %s: %w", s.dir, err)
	}
	s.ready = true
	return nil
}

// Pair derives both artifact paths from one identity.
func (s *Scratch) Pair(id string, sourceExt string) entities.ArtifactPair {
	if sourceExt == "" {
		sourceExt = DefaultSourceExt
	}
	return entities.ArtifactPair{
		ID:      id,
		Source:  filepath.Join(s.dir, SourcePrefix+id+sourceExt),
		Sticker: filepath.Join(s.dir, StickerPrefix+id+StickerExt),
	}
}

// ResolveDir anchors a relative scratch path next to the running binary.
func ResolveDir(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), dir), nil
}
