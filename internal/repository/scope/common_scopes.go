package scope

import "gorm.io/gorm"

// NewestFirst orders by creation time with id as tie-breaker.
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}
