package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nikita-bekish/qwen-analyzer/internal/cache"
	"github.com/nikita-bekish/qwen-analyzer/internal/domain"
)

// fakeEmbedder counts calls and returns a fixed-length vector derived
// from the text length.
type fakeEmbedder struct {
	calls  int
	failAt int // 1-based call index to fail on, 0 = never
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.calls++
	if f.failAt > 0 && f.calls >= f.failAt {
		return nil, errors.New("embed backend down")
	}
	return []float64{float64(len(text)), 1, 0}, nil
}

func corpus() ([]byte, []domain.LogRecord) {
	raw := []byte(`{"service":"payment","error_type":"Timeout","message":"slow"}
{"service":"auth","error_type":"AuthFailed","message":"denied"}
`)
	records := []domain.LogRecord{
		{Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), Service: "payment", ErrorType: "Timeout", Message: "slow"},
		{Service: "auth", ErrorType: "AuthFailed", Message: "denied", Metadata: map[string]string{"b": "2", "a": "1"}},
	}
	return raw, records
}

func TestBuildCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	raw, records := corpus()
	emb := &fakeEmbedder{}
	ix := New(emb, cache.New(dir), zap.NewNop())

	first, err := ix.Build(context.Background(), "errors.jsonl", raw, records, nil)
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	if emb.calls != len(records) {
		t.Fatalf("first build issued %d embed calls, want %d", emb.calls, len(records))
	}

	second, err := ix.Build(context.Background(), "errors.jsonl", raw, records, nil)
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	if emb.calls != len(records) {
		t.Errorf("second build issued embed calls: %d total, want %d", emb.calls, len(records))
	}
	if len(second) != len(first) {
		t.Fatalf("index size changed across cache reload")
	}
	for i := range first {
		if second[i].Text != first[i].Text {
			t.Errorf("record %d text differs after reload", i)
		}
		for j := range first[i].Vector {
			if second[i].Vector[j] != first[i].Vector[j] {
				t.Errorf("record %d vector differs after reload", i)
			}
		}
	}
}

func TestBuildFingerprintInvalidation(t *testing.T) {
	dir := t.TempDir()
	raw, records := corpus()
	emb := &fakeEmbedder{}
	ix := New(emb, cache.New(dir), zap.NewNop())

	if _, err := ix.Build(context.Background(), "errors.jsonl", raw, records, nil); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	changed := append([]byte(nil), raw...)
	changed[0] ^= 1
	if _, err := ix.Build(context.Background(), "errors.jsonl", changed, records, nil); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	if emb.calls != 2*len(records) {
		t.Errorf("changed corpus should force full re-embed: %d calls, want %d", emb.calls, 2*len(records))
	}
}

func TestBuildProgress(t *testing.T) {
	raw, records := corpus()
	ix := New(&fakeEmbedder{}, cache.New(t.TempDir()), zap.NewNop())

	var seen []int
	_, err := ix.Build(context.Background(), "errors.jsonl", raw, records, func(done, total int) {
		if total != len(records) {
			t.Errorf("progress total = %d, want %d", total, len(records))
		}
		seen = append(seen, done)
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(seen) != len(records) || seen[0] != 1 || seen[len(seen)-1] != len(records) {
		t.Errorf("progress sequence = %v", seen)
	}
}

func TestBuildAbortsWithoutPartialCache(t *testing.T) {
	dir := t.TempDir()
	raw, records := corpus()
	emb := &fakeEmbedder{failAt: 2}
	ix := New(emb, cache.New(dir), zap.NewNop())

	if _, err := ix.Build(context.Background(), "errors.jsonl", raw, records, nil); err == nil {
		t.Fatal("expected fatal error on embed failure")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read cache dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".json") {
			t.Errorf("failed indexing run wrote cache file %s", filepath.Join(dir, e.Name()))
		}
	}
}

func TestProjectionOrder(t *testing.T) {
	_, records := corpus()
	text := Projection(records[1])
	wantOrder := []string{"auth", "AuthFailed", "denied", "a=1", "b=2"}
	last := -1
	for _, part := range wantOrder {
		idx := strings.Index(text, part)
		if idx < 0 {
			t.Fatalf("projection %q missing %q", text, part)
		}
		if idx < last {
			t.Errorf("projection %q out of order at %q", text, part)
		}
		last = idx
	}

	withTS := Projection(records[0])
	if !strings.Contains(withTS, "2024-03-01T10:00:00Z") {
		t.Errorf("projection should include timestamp, got %q", withTS)
	}
}
