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

const msgCategoriaDuplicada = "Ya existe una categoria con ese nombre"

// CategoriaService defines business operations for product categories.
type CategoriaService interface {
	Crear(ctx context.Context, req dto.CrearCategoriaRequest) (*dto.CategoriaResponse, error)
	Listar(ctx context.Context, activo string) ([]dto.CategoriaResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.CategoriaResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarCategoriaRequest) (*dto.CategoriaResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) (*dto.CambioEstadoResponse, error)
	Reactivar(ctx context.Context, id uuid.UUID) (*dto.CambioEstadoResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type categoriaService struct {
	repo      repository.CategoriaRepository
	productos repository.ProductoRepository
	cascade   *CascadeEngine
	cache     Cache
	imagenes  ImagenScheduler
}

func NewCategoriaService(
	repo repository.CategoriaRepository,
	productos repository.ProductoRepository,
	cascade *CascadeEngine,
	cache Cache,
	imagenes ImagenScheduler,
) CategoriaService {
	return &categoriaService{
		repo:      repo,
		productos: productos,
		cascade:   cascade,
		cache:     cacheOrNop(cache),
		imagenes:  imagenes,
	}
}

// mapCategoria converts a model to a DTO response.
func mapCategoria(c model.Categoria) dto.CategoriaResponse {
	return dto.CategoriaResponse{
		ID:          c.ID,
		Nombre:      c.Nombre,
		Descripcion: c.Descripcion,
		Activo:      c.Activo,
	}
}

func (s *categoriaService) Crear(ctx context.Context, req dto.CrearCategoriaRequest) (*dto.CategoriaResponse, error) {
	c := &model.Categoria{
		Nombre:      strings.TrimSpace(req.Nombre),
		Descripcion: req.Descripcion,
		Activo:      true,
	}
	if err := validation.Struct(c); err != nil {
		return nil, err
	}

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.checkNombreLibre(ctx, tx, c.Nombre, uuid.Nil); err != nil {
			return err
		}
		return duplicate(s.repo.Crear(ctx, tx, c), msgCategoriaDuplicada)
	})
	if err != nil {
		return nil, err
	}
	resp := mapCategoria(*c)
	return &resp, nil
}

func (s *categoriaService) Listar(ctx context.Context, activo string) ([]dto.CategoriaResponse, error) {
	list, err := s.repo.Listar(ctx, nil, activo)
	if err != nil {
		return nil, err
	}
	result := make([]dto.CategoriaResponse, 0, len(list))
	for _, c := range list {
		result = append(result, mapCategoria(c))
	}
	return result, nil
}

func (s *categoriaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.CategoriaResponse, error) {
	c, err := s.repo.ObtenerPorID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, apierror.NotFound("Categoria no encontrada"))
	}
	total, err := s.repo.ContarSubcategorias(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	resp := mapCategoria(*c)
	resp.TotalSubcategorias = &total
	return &resp, nil
}

func (s *categoriaService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarCategoriaRequest) (*dto.CategoriaResponse, error) {
	var (
		c          *model.Categoria
		afectados  int
		transicion bool
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		c, err = s.repo.ObtenerPorID(ctx, tx, id)
		if err != nil {
			return notFound(err, apierror.NotFound("Categoria no encontrada"))
		}

		if req.Nombre != nil {
			nombre := strings.TrimSpace(*req.Nombre)
			if !strings.EqualFold(nombre, c.Nombre) {
				if err := s.checkNombreLibre(ctx, tx, nombre, id); err != nil {
					return err
				}
			}
			c.Nombre = nombre
		}
		if req.Descripcion != nil {
			c.Descripcion = req.Descripcion
		}
		if err := validation.Struct(c); err != nil {
			return err
		}
		if err := duplicate(s.repo.Actualizar(ctx, tx, c), msgCategoriaDuplicada); err != nil {
			return err
		}

		if req.Activo != nil {
			transicion, afectados, err = s.cambiarEstado(ctx, tx, c, *req.Activo)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if transicion {
		s.cache.DeletePrefix(ctx, productoCachePrefix)
		log.Info().Str("categoria_id", id.String()).Bool("activo", c.Activo).
			Int("descendientes", afectados).Msg("estado de categoria actualizado")
	}
	resp := mapCategoria(*c)
	return &resp, nil
}

func (s *categoriaService) Desactivar(ctx context.Context, id uuid.UUID) (*dto.CambioEstadoResponse, error) {
	return s.setActivo(ctx, id, false)
}

// Reactivar flips only the category itself. Its subcategories and products
// keep whatever state they had.
func (s *categoriaService) Reactivar(ctx context.Context, id uuid.UUID) (*dto.CambioEstadoResponse, error) {
	return s.setActivo(ctx, id, true)
}

func (s *categoriaService) setActivo(ctx context.Context, id uuid.UUID, activo bool) (*dto.CambioEstadoResponse, error) {
	var (
		afectados  int
		transicion bool
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		c, err := s.repo.ObtenerPorID(ctx, tx, id)
		if err != nil {
			return notFound(err, apierror.NotFound("Categoria no encontrada"))
		}
		transicion, afectados, err = s.cambiarEstado(ctx, tx, c, activo)
		return err
	})
	if err != nil {
		return nil, err
	}
	if transicion {
		s.cache.DeletePrefix(ctx, productoCachePrefix)
		log.Info().Str("categoria_id", id.String()).Bool("activo", activo).
			Int("descendientes", afectados).Msg("estado de categoria actualizado")
	}
	return &dto.CambioEstadoResponse{ID: id, Activo: activo, DescendientesAfectados: afectados}, nil
}

// cambiarEstado writes the flag and, on a true→false transition only, runs
// the deactivation cascade on the same transaction.
func (s *categoriaService) cambiarEstado(ctx context.Context, tx *gorm.DB, c *model.Categoria, activo bool) (bool, int, error) {
	n, err := s.repo.ActualizarActivo(ctx, tx, c.ID, activo)
	if err != nil {
		return false, 0, err
	}
	c.Activo = activo
	if n == 0 {
		return false, 0, nil
	}
	if activo {
		return true, 0, nil
	}
	afectados, err := s.cascade.CascadeDeactivate(ctx, tx, EntidadCategoria, c.ID)
	return true, afectados, err
}

// Eliminar hard-deletes the category. Foreign keys remove its subcategories,
// products and the cart rows that referenced them.
func (s *categoriaService) Eliminar(ctx context.Context, id uuid.UUID) error {
	var imagenes []string
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if _, err := s.repo.ObtenerPorID(ctx, tx, id); err != nil {
			return notFound(err, apierror.NotFound("Categoria no encontrada"))
		}
		var err error
		imagenes, err = s.productos.ListImagenesPorCategoria(ctx, tx, id)
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

func (s *categoriaService) checkNombreLibre(ctx context.Context, tx *gorm.DB, nombre string, self uuid.UUID) error {
	existing, err := s.repo.ObtenerPorNombre(ctx, tx, nombre)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil && existing.ID != self {
		return apierror.Duplicate(msgCategoriaDuplicada)
	}
	return nil
}
