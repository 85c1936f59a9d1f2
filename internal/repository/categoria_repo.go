package repository

import (
	"context"

	"catalogo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoriaRepository defines CRUD operations for Categoria.
// Every method runs on tx when it is non-nil.
type CategoriaRepository interface {
	Crear(ctx context.Context, tx *gorm.DB, c *model.Categoria) error
	Listar(ctx context.Context, tx *gorm.DB, activo string) ([]model.Categoria, error)
	ObtenerPorID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Categoria, error)
	// ObtenerParaReferenciar reads the row under a shared lock so it cannot be
	// deactivated before the referencing insert commits.
	ObtenerParaReferenciar(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Categoria, error)
	ObtenerPorNombre(ctx context.Context, tx *gorm.DB, nombre string) (*model.Categoria, error)
	Actualizar(ctx context.Context, tx *gorm.DB, c *model.Categoria) error
	ActualizarActivo(ctx context.Context, tx *gorm.DB, id uuid.UUID, activo bool) (int64, error)
	Eliminar(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ContarSubcategorias(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type categoriaRepository struct{ db *gorm.DB }

func NewCategoriaRepository(db *gorm.DB) CategoriaRepository {
	return &categoriaRepository{db: db}
}

func (r *categoriaRepository) DB() *gorm.DB { return r.db }

func (r *categoriaRepository) Crear(ctx context.Context, tx *gorm.DB, c *model.Categoria) error {
	return conn(ctx, r.db, tx).Create(c).Error
}

func (r *categoriaRepository) Listar(ctx context.Context, tx *gorm.DB, activo string) ([]model.Categoria, error) {
	var list []model.Categoria
	err := activoFilter(conn(ctx, r.db, tx), activo, "activo").Order("nombre asc").Find(&list).Error
	return list, err
}

func (r *categoriaRepository) ObtenerPorID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Categoria, error) {
	var c model.Categoria
	err := conn(ctx, r.db, tx).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoriaRepository) ObtenerParaReferenciar(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Categoria, error) {
	var c model.Categoria
	err := forShare(conn(ctx, r.db, tx)).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoriaRepository) ObtenerPorNombre(ctx context.Context, tx *gorm.DB, nombre string) (*model.Categoria, error) {
	var c model.Categoria
	err := conn(ctx, r.db, tx).Where("lower(nombre) = lower(?)", nombre).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Actualizar writes nombre and descripcion only; the activo flag goes through
// ActualizarActivo so that transitions are always visible to the caller.
func (r *categoriaRepository) Actualizar(ctx context.Context, tx *gorm.DB, c *model.Categoria) error {
	return conn(ctx, r.db, tx).Model(c).Select("nombre", "descripcion", "updated_at").Updates(c).Error
}

// ActualizarActivo flips the flag only when it differs and reports how many
// rows actually changed (0 or 1).
func (r *categoriaRepository) ActualizarActivo(ctx context.Context, tx *gorm.DB, id uuid.UUID, activo bool) (int64, error) {
	res := conn(ctx, r.db, tx).Model(&model.Categoria{}).
		Where("id = ? AND activo = ?", id, !activo).
		Update("activo", activo)
	return res.RowsAffected, res.Error
}

func (r *categoriaRepository) Eliminar(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return conn(ctx, r.db, tx).Delete(&model.Categoria{}, "id = ?", id).Error
}

func (r *categoriaRepository) ContarSubcategorias(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db, tx).Model(&model.Subcategoria{}).Where("categoria_id = ?", id).Count(&n).Error
	return n, err
}
