package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Task struct {
	Id        int64            `gorm:"primaryKey;autoIncrement"`
	OwnerId   string           `gorm:"type:text;not null;index"`
	RawText   string           `gorm:"type:text;not null"`
	Content   string           `gorm:"type:text;not null"`
	Category  string           `gorm:"type:varchar(16);not null;default:'NOTE'"`
	Priority  string           `gorm:"type:varchar(16);not null;default:'MEDIUM'"`
	DueDate   *datatypes.Date  `gorm:"type:date"`
	Embedding *pgvector.Vector `gorm:"type:vector(768)"` // Gemini text-embedding-004 uses 768 dimensions; NULL when generation failed
	CreatedAt time.Time        `gorm:"autoCreateTime;index"`
}

func (Task) TableName() string {
	return "tasks"
}

// ScoredTask is a row returned by the match_tasks function.
type ScoredTask struct {
	Task
	Similarity float64
}
