package database

import (
	"gorm.io/gorm"
)

// Paginate applies 1-based page/pageSize pagination to a GORM query.
// Non-positive values leave the query unbounded.
func Paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page <= 0 || pageSize <= 0 {
			return db
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

// ForOrganization scopes a query to one tenant.
func ForOrganization(table string, organizationID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".organization_id = ?", organizationID)
	}
}
