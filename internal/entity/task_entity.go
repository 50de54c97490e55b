package entity

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryTask     Category = "TASK"
	CategoryReminder Category = "REMINDER"
	CategoryNote     Category = "NOTE"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// DueDateLayout is the only accepted due date format.
const DueDateLayout = "2006-01-02"

// EmbeddingDimensions matches the vector(768) column.
const EmbeddingDimensions = 768

type Task struct {
	Id        int64
	OwnerId   string
	RawText   string
	Content   string
	Category  Category
	Priority  Priority
	DueDate   *time.Time
	Embedding []float32 // nil when embedding generation failed
	CreatedAt time.Time
}

func (t *Task) HasEmbedding() bool {
	return len(t.Embedding) > 0
}

// ScoredTask is a task annotated with a similarity in [0,1].
type ScoredTask struct {
	Task       *Task
	Similarity float64
}

// ParseCategory normalizes s and reports whether it is a known category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case CategoryTask, CategoryReminder, CategoryNote:
		return c, true
	}
	return CategoryNote, false
}

// ParsePriority normalizes s and reports whether it is a known priority.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, true
	}
	return PriorityMedium, false
}
