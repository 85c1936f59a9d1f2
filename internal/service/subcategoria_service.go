package service

import (
	"context"
	"errors"
	"strings"

	"catalogo/internal/apierror"
	"catalogo/internal/dto"
	"catalogo/internal/model"
	"catalogo/internal/repository"
	"catalogo/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const msgSubcategoriaDuplicada = "Ya existe una subcategoria con ese nombre en la categoria"

type SubcategoriaService interface {
	Crear(ctx context.Context, req dto.CrearSubcategoriaRequest) (*dto.SubcategoriaResponse, error)
	Listar(ctx context.Context, filter dto.SubcategoriaFilter) ([]dto.SubcategoriaResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.SubcategoriaResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarSubcategoriaRequest) (*dto.SubcategoriaResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) (*dto.CambioEstadoResponse, error)
	Reactivar(ctx context.Context, id uuid.UUID) (*dto.CambioEstadoResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type subcategoriaService struct {
	repo      repository.SubcategoriaRepository
	productos repository.ProductoRepository
	cascade   *CascadeEngine
	cache     Cache
	imagenes  ImagenScheduler
}

func NewSubcategoriaService(
	repo repository.SubcategoriaRepository,
	productos repository.ProductoRepository,
	cascade *CascadeEngine,
	cache Cache,
	imagenes ImagenScheduler,
) SubcategoriaService {
	return &subcategoriaService{
		repo:      repo,
		productos: productos,
		cascade:   cascade,
		cache:     cacheOrNop(cache),
		imagenes:  imagenes,
	}
}

func mapSubcategoria(s model.Subcategoria) dto.SubcategoriaResponse {
	return dto.SubcategoriaResponse{
		ID:          s.ID,
		Nombre:      s.Nombre,
		Descripcion: s.Descripcion,
		CategoriaID: s.CategoriaID,
		Activo:      s.Activo,
	}
}

func (s *subcategoriaService) Crear(ctx context.Context, req dto.CrearSubcategoriaRequest) (*dto.SubcategoriaResponse, error) {
	categoriaID, err := uuid.Parse(req.CategoriaID)
	if err != nil {
		return nil, apierror.Validation("categoria_id", "uuid", "El campo categoria_id no es valido")
	}
	sub := &model.Subcategoria{
		Nombre:      strings.TrimSpace(req.Nombre),
		Descripcion: req.Descripcion,
		CategoriaID: categoriaID,
		Activo:      true,
	}
	if err := validation.Struct(sub); err != nil {
		return nil, err
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.cascade.ValidateParentActive(ctx, tx, EntidadSubcategoria, Padres{CategoriaID: categoriaID}); err != nil {
			return err
		}
		if err := s.checkNombreLibre(ctx, tx, categoriaID, sub.Nombre, uuid.Nil); err != nil {
			return err
		}
		return duplicate(s.repo.Crear(ctx, tx, sub), msgSubcategoriaDuplicada)
	})
	if err != nil {
		return nil, err
	}
	resp := mapSubcategoria(*sub)
	return &resp, nil
}

func (s *subcategoriaService) Listar(ctx context.Context, filter dto.SubcategoriaFilter) ([]dto.SubcategoriaResponse, error) {
	f := repository.SubcategoriaFilter{Activo: filter.Activo}
	if filter.CategoriaID != "" {
		id, err := uuid.Parse(filter.CategoriaID)
		if err != nil {
			return nil, apierror.Validation("categoria_id", "uuid", "El campo categoria_id no es valido")
		}
		f.CategoriaID = &id
	}
	list, err := s.repo.Listar(ctx, nil, f)
	if err != nil {
		return nil, err
	}
	result := make([]dto.SubcategoriaResponse, 0, len(list))
	for _, sub := range list {
		result = append(result, mapSubcategoria(sub))
	}
	return result, nil
}

func (s *subcategoriaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.SubcategoriaResponse, error) {
	sub, err := s.repo.ObtenerPorID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, apierror.NotFound("Subcategoria no encontrada"))
	}
	total, err := s.repo.ContarProductos(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	resp := mapSubcategoria(*sub)
	resp.TotalProductos = &total
	return &resp, nil
}

// Actualizar edits nombre, descripcion and activo. The owning category is
// fixed at creation.
func (s *subcategoriaService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarSubcategoriaRequest) (*dto.SubcategoriaResponse, error) {
	var (
		sub        *model.Subcategoria
		afectados  int
		transicion bool
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		sub, err = s.repo.ObtenerPorID(ctx, tx, id)
		if err != nil {
			return notFound(err, apierror.NotFound("Subcategoria no encontrada"))
		}

		if req.Nombre != nil {
			nombre := strings.TrimSpace(*req.Nombre)
			if !strings.EqualFold(nombre, sub.Nombre) {
				if err := s.checkNombreLibre(ctx, tx, sub.CategoriaID, nombre, id); err != nil {
					return err
				}
			}
			sub.Nombre = nombre
		}
		if req.Descripcion != nil {
			sub.Descripcion = req.Descripcion
		}
		if err := validation.Struct(sub); err != nil {
			return err
		}
		if err := duplicate(s.repo.Actualizar(ctx, tx, sub), msgSubcategoriaDuplicada); err != nil {
			return err
		}

		if req.Activo != nil {
			transicion, afectados, err = s.cambiarEstado(ctx, tx, sub, *req.Activo)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if transicion {
		s.cache.DeletePrefix(ctx, productoCachePrefix)
		log.Info().Str("subcategoria_id", id.String()).Bool("activo", sub.Activo).
			Int("descendientes", afectados).Msg("estado de subcategoria actualizado")
	}
	resp := mapSubcategoria(*sub)
	return &resp, nil
}

func (s *subcategoriaService) Desactivar(ctx context.Context, id uuid.UUID) (*dto.CambioEstadoResponse, error) {
	return s.setActivo(ctx, id, false)
}

// Reactivar flips only the subcategory, and only while its category is active.
func (s *subcategoriaService) Reactivar(ctx context.Context, id uuid.UUID) (*dto.CambioEstadoResponse, error) {
	return s.setActivo(ctx, id, true)
}

func (s *subcategoriaService) setActivo(ctx context.Context, id uuid.UUID, activo bool) (*dto.CambioEstadoResponse, error) {
	var (
		afectados  int
		transicion bool
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sub, err := s.repo.ObtenerPorID(ctx, tx, id)
		if err != nil {
			return notFound(err, apierror.NotFound("Subcategoria no encontrada"))
		}
		transicion, afectados, err = s.cambiarEstado(ctx, tx, sub, activo)
		return err
	})
	if err != nil {
		return nil, err
	}
	if transicion {
		s.cache.DeletePrefix(ctx, productoCachePrefix)
		log.Info().Str("subcategoria_id", id.String()).Bool("activo", activo).
			Int("descendientes", afectados).Msg("estado de subcategoria actualizado")
	}
	return &dto.CambioEstadoResponse{ID: id, Activo: activo, DescendientesAfectados: afectados}, nil
}

func (s *subcategoriaService) cambiarEstado(ctx context.Context, tx *gorm.DB, sub *model.Subcategoria, activo bool) (bool, int, error) {
	if activo && !sub.Activo {
		if err := s.cascade.ValidateParentActive(ctx, tx, EntidadSubcategoria, Padres{CategoriaID: sub.CategoriaID}); err != nil {
			return false, 0, err
		}
	}
	n, err := s.repo.ActualizarActivo(ctx, tx, sub.ID, activo)
	if err != nil {
		return false, 0, err
	}
	sub.Activo = activo
	if n == 0 {
		return false, 0, nil
	}
	if activo {
		return true, 0, nil
	}
	afectados, err := s.cascade.CascadeDeactivate(ctx, tx, EntidadSubcategoria, sub.ID)
	return true, afectados, err
}

// Eliminar hard-deletes the subcategory together with its products.
func (s *subcategoriaService) Eliminar(ctx context.Context, id uuid.UUID) error {
	var imagenes []string
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if _, err := s.repo.ObtenerPorID(ctx, tx, id); err != nil {
			return notFound(err, apierror.NotFound("Subcategoria no encontrada"))
		}
		var err error
		imagenes, err = s.productos.ListImagenesPorSubcategoria(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.repo.Eliminar(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.cache.DeletePrefix(ctx, productoCachePrefix)
	programarEliminacion(ctx, s.imagenes, imagenes...)
	return nil
}

func (s *subcategoriaService) checkNombreLibre(ctx context.Context, tx *gorm.DB, categoriaID uuid.UUID, nombre string, self uuid.UUID) error {
	existing, err := s.repo.ObtenerPorNombre(ctx, tx, categoriaID, nombre)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil && existing.ID != self {
		return apierror.Duplicate(msgSubcategoriaDuplicada)
	}
	return nil
}
