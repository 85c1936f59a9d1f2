package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"catalogo/internal/apierror"
	"catalogo/internal/dto"
	"catalogo/internal/model"
	"catalogo/internal/repository"
	"catalogo/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	productoCachePrefix     = "producto:"
	msgProductoDuplicado    = "Ya existe un producto con ese nombre en la categoria"
	msgProductoNoEncontrado = "Producto no encontrado"
)

func productoCacheKey(id uuid.UUID) string { return productoCachePrefix + id.String() }

// ProductoService defines the business logic contract for products.
type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	// ObtenerPorID hides inactive products unless incluirInactivos is set.
	ObtenerPorID(ctx context.Context, id uuid.UUID, incluirInactivos bool) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) (*dto.CambioEstadoResponse, error)
	Reactivar(ctx context.Context, id uuid.UUID) (*dto.CambioEstadoResponse, error)
	// ActualizarImagen points the product at an already stored file and
	// schedules the previous one for deletion.
	ActualizarImagen(ctx context.Context, id uuid.UUID, nombre string) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type productoService struct {
	repo     repository.ProductoRepository
	cascade  *CascadeEngine
	cache    Cache
	imagenes ImagenScheduler
}

func NewProductoService(repo repository.ProductoRepository, cascade *CascadeEngine, cache Cache, imagenes ImagenScheduler) ProductoService {
	return &productoService{repo: repo, cascade: cascade, cache: cacheOrNop(cache), imagenes: imagenes}
}

func mapProducto(p model.Producto) dto.ProductoResponse {
	return dto.ProductoResponse{
		ID:             p.ID,
		Nombre:         p.Nombre,
		Descripcion:    p.Descripcion,
		Precio:         p.Precio,
		Stock:          p.Stock,
		Imagen:         p.Imagen,
		SubcategoriaID: p.SubcategoriaID,
		CategoriaID:    p.CategoriaID,
		Activo:         p.Activo,
	}
}

func parseUUID(field, v string) (uuid.UUID, error) {
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, apierror.Validation(field, "uuid", "El campo "+field+" no es valido")
	}
	return id, nil
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	subID, err := parseUUID("subcategoria_id", req.SubcategoriaID)
	if err != nil {
		return nil, err
	}
	catID, err := parseUUID("categoria_id", req.CategoriaID)
	if err != nil {
		return nil, err
	}

	p := &model.Producto{
		Nombre:         strings.TrimSpace(req.Nombre),
		Descripcion:    req.Descripcion,
		Precio:         req.Precio,
		Stock:          req.Stock,
		SubcategoriaID: subID,
		CategoriaID:    catID,
		Activo:         true,
	}
	if err := validation.Struct(p); err != nil {
		return nil, err
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		padres := Padres{CategoriaID: catID, SubcategoriaID: subID}
		if err := s.cascade.ValidateParentActive(ctx, tx, EntidadProducto, padres); err != nil {
			return err
		}
		if err := s.checkNombreLibre(ctx, tx, catID, p.Nombre, uuid.Nil); err != nil {
			return err
		}
		return duplicate(s.repo.Create(ctx, tx, p), msgProductoDuplicado)
	})
	if err != nil {
		return nil, err
	}
	resp := mapProducto(*p)
	return &resp, nil
}

// ObtenerPorID serves product detail from the cache, but activo always comes
// from the database: an entry written by a reader that raced a cascade must
// not resurrect a deactivated product.
func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID, incluirInactivos bool) (*dto.ProductoResponse, error) {
	key := productoCacheKey(id)
	var resp dto.ProductoResponse
	fresco := false
	if s.cache.Get(ctx, key, &resp) {
		activo, err := s.repo.IsActivo(ctx, nil, id)
		if err != nil {
			s.cache.Delete(ctx, key)
			return nil, notFound(err, apierror.NotFound(msgProductoNoEncontrado))
		}
		fresco = activo == resp.Activo
		if !fresco {
			s.cache.Delete(ctx, key)
		}
	}
	if !fresco {
		p, err := s.repo.FindByID(ctx, nil, id)
		if err != nil {
			return nil, notFound(err, apierror.NotFound(msgProductoNoEncontrado))
		}
		resp = mapProducto(*p)
		s.cache.Set(ctx, key, resp)
	}
	if !resp.Activo && !incluirInactivos {
		return nil, apierror.NotFound(msgProductoNoEncontrado)
	}
	return &resp, nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	f := repository.ProductoFilter{
		Nombre: strings.TrimSpace(filter.Nombre),
		Activo: filter.Activo,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.CategoriaID != "" {
		id, err := parseUUID("categoria_id", filter.CategoriaID)
		if err != nil {
			return nil, err
		}
		f.CategoriaID = &id
	}
	if filter.SubcategoriaID != "" {
		id, err := parseUUID("subcategoria_id", filter.SubcategoriaID)
		if err != nil {
			return nil, err
		}
		f.SubcategoriaID = &id
	}
	if filter.PrecioMin != "" {
		d, err := decimal.NewFromString(filter.PrecioMin)
		if err != nil {
			return nil, apierror.Validation("precio_min", "numeric", "El campo precio_min no es valido")
		}
		f.PrecioMin = &d
	}
	if filter.PrecioMax != "" {
		d, err := decimal.NewFromString(filter.PrecioMax)
		if err != nil {
			return nil, apierror.Validation("precio_max", "numeric", "El campo precio_max no es valido")
		}
		f.PrecioMax = &d
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	productos, total, err := s.repo.List(ctx, nil, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductoResponse, 0, len(productos))
	for _, p := range productos {
		data = append(data, mapProducto(p))
	}
	return &dto.ProductoListResponse{
		Data:       data,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(f.Limit))),
	}, nil
}

// Actualizar applies a partial update. Moving the product to another
// subcategory or category re-runs the parent guard; price changes never reach
// existing cart rows.
func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	var p *model.Producto
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return notFound(err, apierror.NotFound(msgProductoNoEncontrado))
		}

		reubicado := false
		if req.SubcategoriaID != nil {
			subID, err := parseUUID("subcategoria_id", *req.SubcategoriaID)
			if err != nil {
				return err
			}
			reubicado = reubicado || subID != p.SubcategoriaID
			p.SubcategoriaID = subID
		}
		if req.CategoriaID != nil {
			catID, err := parseUUID("categoria_id", *req.CategoriaID)
			if err != nil {
				return err
			}
			reubicado = reubicado || catID != p.CategoriaID
			p.CategoriaID = catID
		}

		renombrado := false
		if req.Nombre != nil {
			nombre := strings.TrimSpace(*req.Nombre)
			renombrado = !strings.EqualFold(nombre, p.Nombre)
			p.Nombre = nombre
		}
		if req.Descripcion != nil {
			p.Descripcion = req.Descripcion
		}
		if req.Precio != nil {
			p.Precio = *req.Precio
		}
		if err := validation.Struct(p); err != nil {
			return err
		}

		activar := req.Activo != nil && *req.Activo && !p.Activo
		quedaActivo := activar || (p.Activo && (req.Activo == nil || *req.Activo))
		if reubicado || activar {
			if quedaActivo {
				padres := Padres{CategoriaID: p.CategoriaID, SubcategoriaID: p.SubcategoriaID}
				if err := s.cascade.ValidateParentActive(ctx, tx, EntidadProducto, padres); err != nil {
					return err
				}
			} else if err := s.checkJerarquia(ctx, tx, p); err != nil {
				return err
			}
		}
		if renombrado || reubicado {
			if err := s.checkNombreLibre(ctx, tx, p.CategoriaID, p.Nombre, p.ID); err != nil {
				return err
			}
		}
		if err := duplicate(s.repo.Update(ctx, tx, p), msgProductoDuplicado); err != nil {
			return err
		}

		if req.Activo != nil && *req.Activo != p.Activo {
			if _, err := s.repo.UpdateActivo(ctx, tx, p.ID, *req.Activo); err != nil {
				return err
			}
			p.Activo = *req.Activo
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, productoCacheKey(id))
	resp := mapProducto(*p)
	return &resp, nil
}

// checkJerarquia verifies that the parents of a product that stays inactive
// exist and agree with each other. Their activo flags do not matter.
func (s *productoService) checkJerarquia(ctx context.Context, tx *gorm.DB, p *model.Producto) error {
	sub, err := s.cascade.subcategorias.ObtenerParaReferenciar(ctx, tx, p.SubcategoriaID)
	if err != nil {
		return notFound(err, apierror.ParentNotFound("La subcategoria no existe"))
	}
	if _, err := s.cascade.categorias.ObtenerParaReferenciar(ctx, tx, p.CategoriaID); err != nil {
		return notFound(err, apierror.ParentNotFound("La categoria no existe"))
	}
	if sub.CategoriaID != p.CategoriaID {
		return apierror.InconsistentHierarchy()
	}
	return nil
}

func (s *productoService) Desactivar(ctx context.Context, id uuid.UUID) (*dto.CambioEstadoResponse, error) {
	return s.setActivo(ctx, id, false)
}

// Reactivar is rejected while the subcategory or category is inactive.
func (s *productoService) Reactivar(ctx context.Context, id uuid.UUID) (*dto.CambioEstadoResponse, error) {
	return s.setActivo(ctx, id, true)
}

func (s *productoService) setActivo(ctx context.Context, id uuid.UUID, activo bool) (*dto.CambioEstadoResponse, error) {
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return notFound(err, apierror.NotFound(msgProductoNoEncontrado))
		}
		if p.Activo == activo {
			return nil
		}
		if activo {
			padres := Padres{CategoriaID: p.CategoriaID, SubcategoriaID: p.SubcategoriaID}
			if err := s.cascade.ValidateParentActive(ctx, tx, EntidadProducto, padres); err != nil {
				return err
			}
		}
		_, err = s.repo.UpdateActivo(ctx, tx, id, activo)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, productoCacheKey(id))
	return &dto.CambioEstadoResponse{ID: id, Activo: activo}, nil
}

func (s *productoService) ActualizarImagen(ctx context.Context, id uuid.UUID, nombre string) (*dto.ProductoResponse, error) {
	if !validation.ImagenValida(nombre) {
		return nil, apierror.Validation("imagen", "imagen", "La imagen debe ser un archivo jpg, jpeg, png o gif")
	}
	var (
		p        *model.Producto
		anterior string
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return notFound(err, apierror.NotFound(msgProductoNoEncontrado))
		}
		if p.Imagen != nil {
			anterior = *p.Imagen
		}
		p.Imagen = &nombre
		return s.repo.UpdateImagen(ctx, tx, id, p.Imagen)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, productoCacheKey(id))
	if anterior != nombre {
		programarEliminacion(ctx, s.imagenes, anterior)
	}
	resp := mapProducto(*p)
	return &resp, nil
}

// Eliminar hard-deletes the product; its cart rows go with it. The image
// file is removed best-effort after commit.
func (s *productoService) Eliminar(ctx context.Context, id uuid.UUID) error {
	var imagen string
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return notFound(err, apierror.NotFound(msgProductoNoEncontrado))
		}
		if p.Imagen != nil {
			imagen = *p.Imagen
		}
		return s.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.cache.Delete(ctx, productoCacheKey(id))
	if imagen != "" {
		log.Debug().Str("producto_id", id.String()).Str("imagen", imagen).Msg("imagen programada para eliminar")
	}
	programarEliminacion(ctx, s.imagenes, imagen)
	return nil
}

func (s *productoService) checkNombreLibre(ctx context.Context, tx *gorm.DB, categoriaID uuid.UUID, nombre string, self uuid.UUID) error {
	existing, err := s.repo.FindByNombre(ctx, tx, categoriaID, nombre)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil && existing.ID != self {
		return apierror.Duplicate(msgProductoDuplicado)
	}
	return nil
}
