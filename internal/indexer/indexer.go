package indexer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nikita-bekish/qwen-analyzer/internal/cache"
	"github.com/nikita-bekish/qwen-analyzer/internal/domain"
)

// ProgressFunc observes indexing progress as (processed, total). It is
// informational only and may be nil.
type ProgressFunc func(done, total int)

// Indexer turns an ordered corpus into an ordered embedded index, going
// through the cache first so an unchanged corpus costs zero embed calls.
type Indexer struct {
	embedder domain.Embedder
	cache    *cache.Cache
	log      *zap.Logger
}

func New(embedder domain.Embedder, c *cache.Cache, log *zap.Logger) *Indexer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Indexer{embedder: embedder, cache: c, log: log}
}

// Build produces one embedded record per input record, preserving order.
// A valid cache entry is returned as-is; otherwise every record is
// embedded sequentially and the full set persisted. Any embed failure is
// fatal: no partial index is usable and no partial cache entry is written.
func (ix *Indexer) Build(ctx context.Context, corpusName string, raw []byte, records []domain.LogRecord, progress ProgressFunc) ([]domain.EmbeddedRecord, error) {
	fingerprint := cache.Fingerprint(raw)

	if entry, err := ix.cache.Load(corpusName); err == nil {
		if entry.Fingerprint == fingerprint && len(entry.Records) == len(records) {
			ix.log.Info("embedding cache hit",
				zap.String("corpus", corpusName),
				zap.Int("records", len(entry.Records)),
			)
			return entry.Records, nil
		}
		ix.log.Info("embedding cache invalid, re-indexing", zap.String("corpus", corpusName))
	}

	embedded := make([]domain.EmbeddedRecord, 0, len(records))
	for i, rec := range records {
		text := Projection(rec)
		vec, err := ix.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed record %d: %w", i, err)
		}
		embedded = append(embedded, domain.EmbeddedRecord{Record: rec, Vector: vec, Text: text})
		if progress != nil {
			progress(i+1, len(records))
		}
	}

	if err := ix.cache.Store(corpusName, fingerprint, embedded); err != nil {
		// Non-fatal: the in-memory index stays usable, only future
		// sessions lose the speed-up.
		ix.log.Warn("embedding cache write failed", zap.String("corpus", corpusName), zap.Error(err))
	}
	return embedded, nil
}

// Projection renders the canonical text that gets embedded for a record:
// service, error type, message, timestamp, then metadata in key order.
func Projection(rec domain.LogRecord) string {
	var b strings.Builder
	b.WriteString(rec.Service)
	b.WriteString(" | ")
	b.WriteString(rec.ErrorType)
	b.WriteString(" | ")
	b.WriteString(rec.Message)
	if !rec.Timestamp.IsZero() {
		b.WriteString(" | ")
		b.WriteString(rec.Timestamp.UTC().Format(time.RFC3339))
	}
	if len(rec.Metadata) > 0 {
		keys := make([]string, 0, len(rec.Metadata))
		for k := range rec.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" |")
		for _, k := range keys {
			b.WriteString(" ")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(rec.Metadata[k])
		}
	}
	return b.String()
}
