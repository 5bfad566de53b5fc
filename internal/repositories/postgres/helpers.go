package postgres

import (
	"context"

	"gorm.io/gorm"
)

// SharedHelpers holds the query pieces reused by every repository in this package.
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// Conn returns tx when the caller is inside a transaction, the root handle otherwise.
func (h *SharedHelpers) Conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return h.db.WithContext(ctx)
}

// TenantScope restricts a query to rows owned by tenantID.
func TenantScope(table, tenantID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".tenant_id = ?", tenantID)
	}
}
