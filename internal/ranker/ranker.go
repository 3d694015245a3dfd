package ranker

import (
	"math"
	"sort"

	"github.com/nikita-bekish/qwen-analyzer/internal/domain"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// ok is false when either vector has zero magnitude or the lengths differ,
// in which case the score is undefined and must not be compared.
func CosineSimilarity(a, b []float64) (score float64, ok bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

type scored struct {
	index int
	score float64
	ok    bool
}

// Rank orders the indexed records by descending cosine similarity against
// the query vector and returns the log portion of the top K. Ordering is
// deterministic: equal scores keep corpus order, and records whose score
// is undefined (zero-magnitude vectors) rank below every scored record.
func Rank(query []float64, records []domain.EmbeddedRecord, topK int) []domain.LogRecord {
	if topK <= 0 || len(records) == 0 {
		return nil
	}
	scores := make([]scored, len(records))
	for i := range records {
		s, ok := CosineSimilarity(query, records[i].Vector)
		scores[i] = scored{index: i, score: s, ok: ok}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].ok != scores[j].ok {
			return scores[i].ok
		}
		if !scores[i].ok {
			return false // both undefined, keep corpus order
		}
		return scores[i].score > scores[j].score
	})
	if topK > len(scores) {
		topK = len(scores)
	}
	out := make([]domain.LogRecord, 0, topK)
	for i := 0; i < topK; i++ {
		out = append(out, records[scores[i].index].Record)
	}
	return out
}
