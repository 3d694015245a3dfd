package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nikita-bekish/qwen-analyzer/internal/domain"
)

// ErrMiss is returned by Load when no usable entry exists for the corpus.
// A miss is an expected first-run state, not a failure.
var ErrMiss = errors.New("embedding cache miss")

// Entry is one persisted cache record: the corpus fingerprint at store
// time, the embedded records in corpus order, and when it was written.
type Entry struct {
	Fingerprint string                  `json:"fingerprint"`
	Records     []domain.EmbeddedRecord `json:"records"`
	CreatedAt   time.Time               `json:"created_at"`
}

// Cache persists precomputed embeddings for a corpus file, keyed by the
// corpus base name. One JSON file per corpus under dir.
type Cache struct {
	dir string
}

func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Fingerprint returns a content-derived digest of the raw corpus bytes.
// It is used only to detect content changes, not as a security primitive.
func Fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Load reads the persisted entry for the named corpus. Absent, unreadable
// or corrupt files all report ErrMiss.
func (c *Cache) Load(name string) (*Entry, error) {
	data, err := os.ReadFile(c.path(name))
	if err != nil {
		return nil, ErrMiss
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, ErrMiss
	}
	if entry.Fingerprint == "" {
		return nil, ErrMiss
	}
	return &entry, nil
}

// Store persists the records plus fingerprint atomically (temp file then
// rename). A failure here is non-fatal for the session: the caller keeps
// its in-memory index and only future runs lose the speed-up.
func (c *Cache) Store(name, fingerprint string, records []domain.EmbeddedRecord) error {
	entry := Entry{
		Fingerprint: fingerprint,
		Records:     records,
		CreatedAt:   time.Now(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	path := c.path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

func (c *Cache) path(name string) string {
	return filepath.Join(c.dir, filepath.Base(name)+".embeddings.json")
}
