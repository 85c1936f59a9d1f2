package repository

import (
	"context"

	"catalogo/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductoFilter defines filters and pagination for listing products.
type ProductoFilter struct {
	Nombre         string
	CategoriaID    *uuid.UUID
	SubcategoriaID *uuid.UUID
	Activo         string
	PrecioMin      *decimal.Decimal
	PrecioMax      *decimal.Decimal
	Page           int
	Limit          int
}

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation.
type ProductoRepository interface {
	Create(ctx context.Context, tx *gorm.DB, p *model.Producto) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Producto, error)
	// IsActivo reads only the activo column. gorm.ErrRecordNotFound when the
	// product does not exist.
	IsActivo(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	FindByNombre(ctx context.Context, tx *gorm.DB, categoriaID uuid.UUID, nombre string) (*model.Producto, error)
	List(ctx context.Context, tx *gorm.DB, filter ProductoFilter) ([]model.Producto, int64, error)
	ListActivosPorCategoria(ctx context.Context, tx *gorm.DB, categoriaID uuid.UUID) ([]model.Producto, error)
	ListActivosPorSubcategoria(ctx context.Context, tx *gorm.DB, subcategoriaID uuid.UUID) ([]model.Producto, error)
	ListImagenesPorCategoria(ctx context.Context, tx *gorm.DB, categoriaID uuid.UUID) ([]string, error)
	ListImagenesPorSubcategoria(ctx context.Context, tx *gorm.DB, subcategoriaID uuid.UUID) ([]string, error)
	Update(ctx context.Context, tx *gorm.DB, p *model.Producto) error
	UpdateActivo(ctx context.Context, tx *gorm.DB, id uuid.UUID, activo bool) (int64, error)
	UpdateImagen(ctx context.Context, tx *gorm.DB, id uuid.UUID, imagen *string) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	// DecrementStock subtracts cantidad only while stock >= cantidad. It
	// returns the number of rows changed: 0 means missing product or not
	// enough stock at the instant of the write.
	DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, cantidad int) (int64, error)
	IncrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, cantidad int) (int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) DB() *gorm.DB { return r.db }

func (r *productoRepo) Create(ctx context.Context, tx *gorm.DB, p *model.Producto) error {
	return conn(ctx, r.db, tx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	if err := conn(ctx, r.db, tx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) IsActivo(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	var row struct{ Activo bool }
	err := conn(ctx, r.db, tx).Model(&model.Producto{}).Select("activo").Where("id = ?", id).Take(&row).Error
	return row.Activo, err
}

func (r *productoRepo) FindByNombre(ctx context.Context, tx *gorm.DB, categoriaID uuid.UUID, nombre string) (*model.Producto, error) {
	var p model.Producto
	err := conn(ctx, r.db, tx).
		Where("categoria_id = ? AND lower(nombre) = lower(?)", categoriaID, nombre).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) List(ctx context.Context, tx *gorm.DB, filter ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := activoFilter(conn(ctx, r.db, tx).Model(&model.Producto{}), filter.Activo, "activo")

	if filter.Nombre != "" {
		q = q.Where("lower(nombre) LIKE lower(?)", "%"+filter.Nombre+"%")
	}
	if filter.CategoriaID != nil {
		q = q.Where("categoria_id = ?", *filter.CategoriaID)
	}
	if filter.SubcategoriaID != nil {
		q = q.Where("subcategoria_id = ?", *filter.SubcategoriaID)
	}
	if filter.PrecioMin != nil {
		q = q.Where("precio >= ?", *filter.PrecioMin)
	}
	if filter.PrecioMax != nil {
		q = q.Where("precio <= ?", *filter.PrecioMax)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(q.Order("nombre ASC"), filter.Page, filter.Limit, 20, 100).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) ListActivosPorCategoria(ctx context.Context, tx *gorm.DB, categoriaID uuid.UUID) ([]model.Producto, error) {
	var productos []model.Producto
	err := conn(ctx, r.db, tx).
		Where("categoria_id = ? AND activo = ?", categoriaID, true).
		Order("nombre ASC").
		Find(&productos).Error
	return productos, err
}

func (r *productoRepo) ListActivosPorSubcategoria(ctx context.Context, tx *gorm.DB, subcategoriaID uuid.UUID) ([]model.Producto, error) {
	var productos []model.Producto
	err := conn(ctx, r.db, tx).
		Where("subcategoria_id = ? AND activo = ?", subcategoriaID, true).
		Order("nombre ASC").
		Find(&productos).Error
	return productos, err
}

func (r *productoRepo) ListImagenesPorCategoria(ctx context.Context, tx *gorm.DB, categoriaID uuid.UUID) ([]string, error) {
	var imagenes []string
	err := conn(ctx, r.db, tx).Model(&model.Producto{}).
		Where("categoria_id = ? AND imagen IS NOT NULL", categoriaID).
		Pluck("imagen", &imagenes).Error
	return imagenes, err
}

func (r *productoRepo) ListImagenesPorSubcategoria(ctx context.Context, tx *gorm.DB, subcategoriaID uuid.UUID) ([]string, error) {
	var imagenes []string
	err := conn(ctx, r.db, tx).Model(&model.Producto{}).
		Where("subcategoria_id = ? AND imagen IS NOT NULL", subcategoriaID).
		Pluck("imagen", &imagenes).Error
	return imagenes, err
}

// Update writes the descriptive and hierarchy columns. Stock, imagen and
// activo have dedicated methods.
func (r *productoRepo) Update(ctx context.Context, tx *gorm.DB, p *model.Producto) error {
	return conn(ctx, r.db, tx).Model(p).
		Select("nombre", "descripcion", "precio", "subcategoria_id", "categoria_id", "updated_at").
		Updates(p).Error
}

func (r *productoRepo) UpdateActivo(ctx context.Context, tx *gorm.DB, id uuid.UUID, activo bool) (int64, error) {
	res := conn(ctx, r.db, tx).Model(&model.Producto{}).
		Where("id = ? AND activo = ?", id, !activo).
		Update("activo", activo)
	return res.RowsAffected, res.Error
}

func (r *productoRepo) UpdateImagen(ctx context.Context, tx *gorm.DB, id uuid.UUID, imagen *string) error {
	return conn(ctx, r.db, tx).Model(&model.Producto{}).Where("id = ?", id).Update("imagen", imagen).Error
}

func (r *productoRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return conn(ctx, r.db, tx).Delete(&model.Producto{}, "id = ?", id).Error
}

func (r *productoRepo) DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, cantidad int) (int64, error) {
	res := conn(ctx, r.db, tx).Model(&model.Producto{}).
		Where("id = ? AND stock >= ?", id, cantidad).
		Update("stock", gorm.Expr("stock - ?", cantidad))
	return res.RowsAffected, res.Error
}

func (r *productoRepo) IncrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, cantidad int) (int64, error) {
	res := conn(ctx, r.db, tx).Model(&model.Producto{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", cantidad))
	return res.RowsAffected, res.Error
}
