package repository

import (
	"context"

	"catalogo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubcategoriaFilter narrows Listar. A nil CategoriaID lists all categories.
type SubcategoriaFilter struct {
	CategoriaID *uuid.UUID
	Activo      string
}

type SubcategoriaRepository interface {
	Crear(ctx context.Context, tx *gorm.DB, s *model.Subcategoria) error
	Listar(ctx context.Context, tx *gorm.DB, filter SubcategoriaFilter) ([]model.Subcategoria, error)
	ListarActivasPorCategoria(ctx context.Context, tx *gorm.DB, categoriaID uuid.UUID) ([]model.Subcategoria, error)
	ObtenerPorID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Subcategoria, error)
	ObtenerParaReferenciar(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Subcategoria, error)
	ObtenerPorNombre(ctx context.Context, tx *gorm.DB, categoriaID uuid.UUID, nombre string) (*model.Subcategoria, error)
	Actualizar(ctx context.Context, tx *gorm.DB, s *model.Subcategoria) error
	ActualizarActivo(ctx context.Context, tx *gorm.DB, id uuid.UUID, activo bool) (int64, error)
	Eliminar(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ContarProductos(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	DB() *gorm.DB
}

type subcategoriaRepository struct{ db *gorm.DB }

func NewSubcategoriaRepository(db *gorm.DB) SubcategoriaRepository {
	return &subcategoriaRepository{db: db}
}

func (r *subcategoriaRepository) DB() *gorm.DB { return r.db }

func (r *subcategoriaRepository) Crear(ctx context.Context, tx *gorm.DB, s *model.Subcategoria) error {
	return conn(ctx, r.db, tx).Create(s).Error
}

func (r *subcategoriaRepository) Listar(ctx context.Context, tx *gorm.DB, filter SubcategoriaFilter) ([]model.Subcategoria, error) {
	q := activoFilter(conn(ctx, r.db, tx), filter.Activo, "activo")
	if filter.CategoriaID != nil {
		q = q.Where("categoria_id = ?", *filter.CategoriaID)
	}
	var list []model.Subcategoria
	err := q.Order("nombre asc").Find(&list).Error
	return list, err
}

func (r *subcategoriaRepository) ListarActivasPorCategoria(ctx context.Context, tx *gorm.DB, categoriaID uuid.UUID) ([]model.Subcategoria, error) {
	var list []model.Subcategoria
	err := conn(ctx, r.db, tx).
		Where("categoria_id = ? AND activo = ?", categoriaID, true).
		Order("nombre asc").
		Find(&list).Error
	return list, err
}

func (r *subcategoriaRepository) ObtenerPorID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Subcategoria, error) {
	var s model.Subcategoria
	if err := conn(ctx, r.db, tx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subcategoriaRepository) ObtenerParaReferenciar(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Subcategoria, error) {
	var s model.Subcategoria
	if err := forShare(conn(ctx, r.db, tx)).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subcategoriaRepository) ObtenerPorNombre(ctx context.Context, tx *gorm.DB, categoriaID uuid.UUID, nombre string) (*model.Subcategoria, error) {
	var s model.Subcategoria
	err := conn(ctx, r.db, tx).
		Where("categoria_id = ? AND lower(nombre) = lower(?)", categoriaID, nombre).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subcategoriaRepository) Actualizar(ctx context.Context, tx *gorm.DB, s *model.Subcategoria) error {
	return conn(ctx, r.db, tx).Model(s).Select("nombre", "descripcion", "updated_at").Updates(s).Error
}

func (r *subcategoriaRepository) ActualizarActivo(ctx context.Context, tx *gorm.DB, id uuid.UUID, activo bool) (int64, error) {
	res := conn(ctx, r.db, tx).Model(&model.Subcategoria{}).
		Where("id = ? AND activo = ?", id, !activo).
		Update("activo", activo)
	return res.RowsAffected, res.Error
}

func (r *subcategoriaRepository) Eliminar(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return conn(ctx, r.db, tx).Delete(&model.Subcategoria{}, "id = ?", id).Error
}

func (r *subcategoriaRepository) ContarProductos(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db, tx).Model(&model.Producto{}).Where("subcategoria_id = ?", id).Count(&n).Error
	return n, err
}
