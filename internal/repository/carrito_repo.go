package repository

import (
	"context"

	"catalogo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CarritoRepository interface {
	FindItem(ctx context.Context, tx *gorm.DB, usuarioID, productoID uuid.UUID) (*model.ItemCarrito, error)
	Create(ctx context.Context, tx *gorm.DB, item *model.ItemCarrito) error
	// IncrementCantidad adds delta in a single UPDATE so concurrent adds never
	// lose an increment.
	IncrementCantidad(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error
	UpdateCantidad(ctx context.Context, tx *gorm.DB, id uuid.UUID, cantidad int) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ListByUsuario(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) ([]model.ItemCarrito, error)
	Clear(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) (int64, error)
	DB() *gorm.DB
}

type carritoRepo struct{ db *gorm.DB }

func NewCarritoRepository(db *gorm.DB) CarritoRepository { return &carritoRepo{db: db} }

func (r *carritoRepo) DB() *gorm.DB { return r.db }

func (r *carritoRepo) FindItem(ctx context.Context, tx *gorm.DB, usuarioID, productoID uuid.UUID) (*model.ItemCarrito, error) {
	var item model.ItemCarrito
	err := conn(ctx, r.db, tx).
		Where("usuario_id = ? AND producto_id = ?", usuarioID, productoID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *carritoRepo) Create(ctx context.Context, tx *gorm.DB, item *model.ItemCarrito) error {
	return conn(ctx, r.db, tx).Create(item).Error
}

func (r *carritoRepo) IncrementCantidad(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error {
	return conn(ctx, r.db, tx).Model(&model.ItemCarrito{}).
		Where("id = ?", id).
		Update("cantidad", gorm.Expr("cantidad + ?", delta)).Error
}

func (r *carritoRepo) UpdateCantidad(ctx context.Context, tx *gorm.DB, id uuid.UUID, cantidad int) error {
	return conn(ctx, r.db, tx).Model(&model.ItemCarrito{}).
		Where("id = ?", id).
		Update("cantidad", cantidad).Error
}

func (r *carritoRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return conn(ctx, r.db, tx).Delete(&model.ItemCarrito{}, "id = ?", id).Error
}

func (r *carritoRepo) ListByUsuario(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) ([]model.ItemCarrito, error) {
	var items []model.ItemCarrito
	err := conn(ctx, r.db, tx).
		Preload("Producto").
		Where("usuario_id = ?", usuarioID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *carritoRepo) Clear(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) (int64, error) {
	res := conn(ctx, r.db, tx).Where("usuario_id = ?", usuarioID).Delete(&model.ItemCarrito{})
	return res.RowsAffected, res.Error
}
