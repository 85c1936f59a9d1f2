package service

import (
	"context"
	"errors"
	"fmt"

	"catalogo/internal/apierror"
	"catalogo/internal/model"
	"catalogo/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Entidad names a level of the catalog hierarchy.
type Entidad string

const (
	EntidadCategoria    Entidad = "categoria"
	EntidadSubcategoria Entidad = "subcategoria"
	EntidadProducto     Entidad = "producto"
)

// Padres holds the parent references of a row about to be written.
// Subcategorias only use CategoriaID.
type Padres struct {
	CategoriaID    uuid.UUID
	SubcategoriaID uuid.UUID
}

// CascadeEngine keeps activo(producto) ⇒ activo(subcategoria) ⇒ activo(categoria)
// true across writes. It owns no connection: every call runs on the
// transaction handed in by the write path.
type CascadeEngine struct {
	categorias    repository.CategoriaRepository
	subcategorias repository.SubcategoriaRepository
	productos     repository.ProductoRepository
}

func NewCascadeEngine(
	categorias repository.CategoriaRepository,
	subcategorias repository.SubcategoriaRepository,
	productos repository.ProductoRepository,
) *CascadeEngine {
	return &CascadeEngine{categorias: categorias, subcategorias: subcategorias, productos: productos}
}

// ValidateParentActive checks that the parents of a new (or reactivated)
// subcategoria or producto exist, are active and agree with each other.
// Parent rows are read under a shared lock where the dialect has one.
func (e *CascadeEngine) ValidateParentActive(ctx context.Context, tx *gorm.DB, kind Entidad, padres Padres) error {
	switch kind {
	case EntidadSubcategoria:
		cat, err := e.categorias.ObtenerParaReferenciar(ctx, tx, padres.CategoriaID)
		if err != nil {
			return notFound(err, apierror.ParentNotFound("La categoria no existe"))
		}
		if !cat.Activo {
			return apierror.ParentInactive(fmt.Sprintf("La categoria %s esta inactiva", cat.Nombre))
		}
		return nil

	case EntidadProducto:
		// Lock categoria before subcategoria, the order CascadeDeactivate
		// writes them in.
		cat, catErr := e.categorias.ObtenerParaReferenciar(ctx, tx, padres.CategoriaID)
		if catErr != nil && !errors.Is(catErr, gorm.ErrRecordNotFound) {
			return catErr
		}
		sub, err := e.subcategorias.ObtenerParaReferenciar(ctx, tx, padres.SubcategoriaID)
		if err != nil {
			return notFound(err, apierror.ParentNotFound("La subcategoria no existe"))
		}
		if catErr != nil {
			return apierror.ParentNotFound("La categoria no existe")
		}
		if !sub.Activo {
			return apierror.ParentInactive(fmt.Sprintf("La subcategoria %s esta inactiva", sub.Nombre))
		}
		if !cat.Activo {
			return apierror.ParentInactive(fmt.Sprintf("La categoria %s esta inactiva", cat.Nombre))
		}
		if sub.CategoriaID != cat.ID {
			return apierror.InconsistentHierarchy()
		}
		return nil

	default:
		return fmt.Errorf("cascade: %s has no parent", kind)
	}
}

// CascadeDeactivate deactivates every active descendant of the given row and
// returns how many were flipped. Callers invoke it only after the row itself
// went from true to false. The first failing write aborts the cascade with a
// CascadeWriteFailure; the caller's transaction must then roll back.
func (e *CascadeEngine) CascadeDeactivate(ctx context.Context, tx *gorm.DB, kind Entidad, id uuid.UUID) (int, error) {
	switch kind {
	case EntidadCategoria:
		subs, err := e.subcategorias.ListarActivasPorCategoria(ctx, tx, id)
		if err != nil {
			return 0, fmt.Errorf("cascade: listar subcategorias: %w", err)
		}
		total := 0
		for _, s := range subs {
			n, err := e.subcategorias.ActualizarActivo(ctx, tx, s.ID, false)
			if err != nil {
				return total, apierror.CascadeWriteFailure(string(EntidadSubcategoria), s.ID.String(), err)
			}
			if n > 0 {
				total++
				log.Debug().
					Str("categoria_id", id.String()).
					Str("subcategoria_id", s.ID.String()).
					Msg("subcategoria desactivada en cascada")
			}
		}

		prods, err := e.productos.ListActivosPorCategoria(ctx, tx, id)
		if err != nil {
			return total, fmt.Errorf("cascade: listar productos: %w", err)
		}
		n, err := e.desactivarProductos(ctx, tx, kind, id, prods)
		return total + n, err

	case EntidadSubcategoria:
		prods, err := e.productos.ListActivosPorSubcategoria(ctx, tx, id)
		if err != nil {
			return 0, fmt.Errorf("cascade: listar productos: %w", err)
		}
		return e.desactivarProductos(ctx, tx, kind, id, prods)

	case EntidadProducto:
		return 0, nil

	default:
		return 0, fmt.Errorf("cascade: unknown entity %q", kind)
	}
}

func (e *CascadeEngine) desactivarProductos(ctx context.Context, tx *gorm.DB, padre Entidad, padreID uuid.UUID, prods []model.Producto) (int, error) {
	total := 0
	for _, p := range prods {
		n, err := e.productos.UpdateActivo(ctx, tx, p.ID, false)
		if err != nil {
			return total, apierror.CascadeWriteFailure(string(EntidadProducto), p.ID.String(), err)
		}
		if n > 0 {
			total++
			log.Debug().
				Str(string(padre)+"_id", padreID.String()).
				Str("producto_id", p.ID.String()).
				Str("producto", p.Nombre).
				Msg("producto desactivado en cascada")
		}
	}
	return total, nil
}
