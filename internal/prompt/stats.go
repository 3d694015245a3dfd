package prompt

import (
	"sort"

	"github.com/nikita-bekish/qwen-analyzer/internal/domain"
)

// Count is one row of a frequency table.
type Count struct {
	Name  string
	Count int
}

// Stats holds aggregate frequency tables over the full corpus. They are
// recomputed per question rather than kept as shared mutable state.
type Stats struct {
	Total       int
	ByErrorType []Count
	ByService   []Count
}

// ComputeStats counts records grouped by error type and by service. Both
// tables sort by descending count, then name, so output is deterministic.
func ComputeStats(records []domain.LogRecord) Stats {
	byError := make(map[string]int)
	byService := make(map[string]int)
	for _, rec := range records {
		byError[rec.ErrorType]++
		byService[rec.Service]++
	}
	return Stats{
		Total:       len(records),
		ByErrorType: sortedCounts(byError),
		ByService:   sortedCounts(byService),
	}
}

func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
