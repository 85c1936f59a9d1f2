package repository

import (
	"context"
	"time"

	"catalogo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoStockFilter narrows the ledger listing. Desde is inclusive and
// Hasta exclusive.
type MovimientoStockFilter struct {
	ProductoID *uuid.UUID
	Tipo       string
	Desde      *time.Time
	Hasta      *time.Time
	Page       int
	Limit      int
}

// MovimientoStockRepository is append-only: ledger rows are never updated.
type MovimientoStockRepository interface {
	Create(ctx context.Context, tx *gorm.DB, m *model.MovimientoStock) error
	List(ctx context.Context, tx *gorm.DB, filter MovimientoStockFilter) ([]model.MovimientoStock, int64, error)
}

type movimientoStockRepo struct{ db *gorm.DB }

func NewMovimientoStockRepository(db *gorm.DB) MovimientoStockRepository {
	return &movimientoStockRepo{db: db}
}

func (r *movimientoStockRepo) Create(ctx context.Context, tx *gorm.DB, m *model.MovimientoStock) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

func (r *movimientoStockRepo) List(ctx context.Context, tx *gorm.DB, filter MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	q := conn(ctx, r.db, tx).Model(&model.MovimientoStock{})
	if filter.ProductoID != nil {
		q = q.Where("producto_id = ?", *filter.ProductoID)
	}
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	if filter.Desde != nil {
		q = q.Where("created_at >= ?", *filter.Desde)
	}
	if filter.Hasta != nil {
		q = q.Where("created_at < ?", *filter.Hasta)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movimientos []model.MovimientoStock
	err := paginate(q.Preload("Producto").Order("created_at DESC"), filter.Page, filter.Limit, 100, 500).
		Find(&movimientos).Error
	return movimientos, total, err
}
