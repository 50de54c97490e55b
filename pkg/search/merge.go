package search

import (
	"sort"

	"growny-ai-be/internal/entity"
)

const (
	TextMatchScore = 0.8
	WordMatchScore = 0.5
)

type Source string

const (
	SourceContent Source = "content"
	SourceRawText Source = "raw_text"
	SourceWord    Source = "word"
	SourceVector  Source = "vector"
)

// Hit is one task found by a search pass with its current confidence.
type Hit struct {
	Task       *entity.Task
	Similarity float64
	Source     Source
}

// MergeHit resolves a candidate against the hit already recorded for the
// same task, if any. Text and word passes only ever insert. A vector
// candidate inserts with its own similarity, or raises an existing hit's
// similarity when strictly greater; it never lowers it.
func MergeHit(existing *Hit, candidate entity.ScoredTask, source Source) Hit {
	if existing == nil {
		hit := Hit{Task: candidate.Task, Source: source}
		switch source {
		case SourceContent, SourceRawText:
			hit.Similarity = TextMatchScore
		case SourceWord:
			hit.Similarity = WordMatchScore
		default:
			hit.Similarity = candidate.Similarity
		}
		return hit
	}

	merged := *existing
	if source == SourceVector && candidate.Similarity > merged.Similarity {
		merged.Similarity = candidate.Similarity
	}
	return merged
}

// Results collects hits keyed by task id, remembering first-encounter order.
type Results struct {
	order []int64
	hits  map[int64]*Hit
}

func NewResults() *Results {
	return &Results{hits: make(map[int64]*Hit)}
}

func (r *Results) AddTasks(source Source, tasks []*entity.Task) {
	for _, task := range tasks {
		r.Add(source, entity.ScoredTask{Task: task})
	}
}

func (r *Results) AddScored(source Source, scored []*entity.ScoredTask) {
	for _, s := range scored {
		r.Add(source, *s)
	}
}

func (r *Results) Add(source Source, candidate entity.ScoredTask) {
	if candidate.Task == nil {
		return
	}

	id := candidate.Task.Id
	existing, ok := r.hits[id]
	if !ok {
		r.order = append(r.order, id)
	}

	merged := MergeHit(existing, candidate, source)
	r.hits[id] = &merged
}

func (r *Results) Len() int {
	return len(r.order)
}

// Ranked returns hits ordered by similarity descending, ties in encounter
// order, truncated to limit (no truncation when limit <= 0).
func (r *Results) Ranked(limit int) []Hit {
	ranked := make([]Hit, 0, len(r.order))
	for _, id := range r.order {
		ranked = append(ranked, *r.hits[id])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
