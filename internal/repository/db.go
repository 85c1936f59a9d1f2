package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// conn returns the handle a repository call must run on: the caller's
// transaction when there is one, the repository's root connection otherwise.
func conn(ctx context.Context, root, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = root
	}
	return tx.WithContext(ctx)
}

// forShare adds a shared row lock on dialects that support it. SQLite
// serializes writers at the database level and has no row locks.
func forShare(q *gorm.DB) *gorm.DB {
	switch q.Dialector.Name() {
	case "postgres", "mysql":
		return q.Clauses(clause.Locking{Strength: "SHARE"})
	default:
		return q
	}
}

// activoFilter applies the "true" (default) | "false" | "all" convention
// shared by every list endpoint.
func activoFilter(q *gorm.DB, activo, column string) *gorm.DB {
	switch activo {
	case "false":
		return q.Where(column+" = ?", false)
	case "all":
		return q
	default:
		return q.Where(column+" = ?", true)
	}
}

// paginate applies OFFSET/LIMIT for a 1-based page. Out-of-range limits fall
// back to def.
func paginate(q *gorm.DB, page, limit, def, maxLimit int) *gorm.DB {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = def
	}
	return q.Offset((page - 1) * limit).Limit(limit)
}
