package specification

import (
	"strings"

	"gorm.io/gorm"
)

// OwnedBy scopes every task query to one principal.
type OwnedBy struct {
	OwnerID string
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tasks.owner_id = ?", s.OwnerID)
}

// ContentContains is a case-insensitive substring match on the summary.
type ContentContains struct {
	Query string
}

func (s ContentContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tasks.content ILIKE ?", LikePattern(s.Query))
}

// RawTextContains is a case-insensitive substring match on the submitted text.
type RawTextContains struct {
	Query string
}

func (s RawTextContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tasks.raw_text ILIKE ?", LikePattern(s.Query))
}

// HasEmbedding keeps only rows that can take part in vector search.
type HasEmbedding struct{}

func (s HasEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tasks.embedding IS NOT NULL")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern wraps q for ILIKE so that it matches as a literal substring.
func LikePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

// WithoutEmbedding skips loading the vector column.
type WithoutEmbedding struct{}

func (s WithoutEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Omit("embedding")
}
