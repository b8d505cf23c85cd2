package client

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Handle is a client-local reference to playable audio. A handle is created
// per successful synthesis and never reused.
type Handle struct {
	ID       string
	URL      string
	Path     string // set by FileStore only
	MIMEType string
	Size     int
}

// AudioStore turns audio bytes into playable handles and reclaims them.
type AudioStore interface {
	Create(data []byte, mimeType string) (*Handle, error)
	Release(h *Handle) error
}

// MemoryStore keeps audio in memory under blob-style URLs.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Create(data []byte, mimeType string) (*Handle, error) {
	id := uuid.NewString()
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.blobs[id] = buf
	s.mu.Unlock()

	return &Handle{
		ID:       id,
		URL:      "blob:" + id,
		MIMEType: mimeType,
		Size:     len(buf),
	}, nil
}

func (s *MemoryStore) Release(h *Handle) error {
	if h == nil {
		return nil
	}
	s.mu.Lock()
	delete(s.blobs, h.ID)
	s.mu.Unlock()
	return nil
}

// Bytes returns the audio behind h while it is live.
func (s *MemoryStore) Bytes(h *Handle) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[h.ID]
	return b, ok
}

// Live reports how many handles have not been released.
func (s *MemoryStore) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// FileStore writes each handle to its own file so external players can open it.
type FileStore struct {
	dir string

	mu   sync.Mutex
	live map[string]string
}

// NewFileStore stores audio under dir, or a fresh temp directory when dir is empty.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		d, err := os.MkdirTemp("", "speech-*")
		if err != nil {
			return nil, fmt.Errorf("create audio dir: %w", err)
		}
		dir = d
	}
	return &FileStore{dir: dir, live: make(map[string]string)}, nil
}

func (s *FileStore) Create(data []byte, mimeType string) (*Handle, error) {
	id := uuid.NewString()
	path := filepath.Join(s.dir, "speech-"+id+extension(mimeType))

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write audio: %w", err)
	}

	s.mu.Lock()
	s.live[id] = path
	s.mu.Unlock()

	return &Handle{
		ID:       id,
		URL:      (&url.URL{Scheme: "file", Path: path}).String(),
		Path:     path,
		MIMEType: mimeType,
		Size:     len(data),
	}, nil
}

func (s *FileStore) Release(h *Handle) error {
	if h == nil {
		return nil
	}

	s.mu.Lock()
	path, ok := s.live[h.ID]
	delete(s.live, h.ID)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove audio: %w", err)
	}
	return nil
}

// Live reports how many files have not been released.
func (s *FileStore) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Dir is the directory holding live audio files.
func (s *FileStore) Dir() string {
	return s.dir
}

func extension(mimeType string) string {
	switch mimeType {
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav":
		return ".wav"
	default:
		return ".bin"
	}
}
