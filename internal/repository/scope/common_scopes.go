package scope

import "gorm.io/gorm"

// MostRecentFirst orders by last update, id as tie breaker.
func MostRecentFirst(db *gorm.DB) *gorm.DB {
	return db.Order("updated_at DESC").Order("id ASC")
}

func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}
