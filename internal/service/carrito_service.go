package service

import (
	"context"
	"errors"

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

// CarritoService keeps one row per (usuario, producto) with the unit price
// captured on the first add. usuarioID comes from the authenticated request
// and is not re-validated here.
type CarritoService interface {
	AddToCart(ctx context.Context, usuarioID, productoID uuid.UUID, cantidad int) (*dto.ItemCarritoResponse, error)
	// UpdateQuantity sets the quantity in place. 0 removes the row and returns nil.
	UpdateQuantity(ctx context.Context, usuarioID, productoID uuid.UUID, cantidad int) (*dto.ItemCarritoResponse, error)
	RemoveFromCart(ctx context.Context, usuarioID, productoID uuid.UUID) error
	GetCart(ctx context.Context, usuarioID uuid.UUID) (*dto.CarritoResponse, error)
	ClearCart(ctx context.Context, usuarioID uuid.UUID) error
}

type carritoService struct {
	repo      repository.CarritoRepository
	productos repository.ProductoRepository
	stock     StockService
}

// NewCarritoService builds the cart service. Availability is always asked of
// stock, on the cart operation's own transaction.
func NewCarritoService(repo repository.CarritoRepository, productos repository.ProductoRepository, stock StockService) CarritoService {
	return &carritoService{repo: repo, productos: productos, stock: stock}
}

// disponible fails with InsufficientStock unless p can cover total units.
func (s *carritoService) disponible(ctx context.Context, tx *gorm.DB, p *model.Producto, total int) error {
	ok, err := s.stock.HasStock(ctx, tx, p.ID, total)
	if err != nil {
		return notFound(err, apierror.ProductNotFound())
	}
	if !ok {
		return apierror.InsufficientStock(p.Nombre)
	}
	return nil
}

func mapItem(i model.ItemCarrito) dto.ItemCarritoResponse {
	r := dto.ItemCarritoResponse{
		ID:             i.ID,
		ProductoID:     i.ProductoID,
		Cantidad:       i.Cantidad,
		PrecioUnitario: i.PrecioUnitario,
		Subtotal:       i.Subtotal(),
	}
	if i.Producto != nil {
		r.Producto = i.Producto.Nombre
		r.Imagen = i.Producto.Imagen
	}
	return r
}

func (s *carritoService) AddToCart(ctx context.Context, usuarioID, productoID uuid.UUID, cantidad int) (*dto.ItemCarritoResponse, error) {
	if cantidad < 1 {
		return nil, apierror.InvalidQuantity()
	}

	var item *model.ItemCarrito
	add := func(tx *gorm.DB) error {
		var err error
		item, err = s.agregar(ctx, tx, usuarioID, productoID, cantidad)
		return err
	}
	err := runTx(ctx, s.repo.DB(), add)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent request inserted the row first; ours becomes an increment.
		log.Debug().Str("usuario_id", usuarioID.String()).Str("producto_id", productoID.String()).
			Msg("carrito: insercion concurrente, reintentando como incremento")
		err = runTx(ctx, s.repo.DB(), add)
	}
	if err != nil {
		return nil, err
	}
	resp := mapItem(*item)
	return &resp, nil
}

func (s *carritoService) agregar(ctx context.Context, tx *gorm.DB, usuarioID, productoID uuid.UUID, cantidad int) (*model.ItemCarrito, error) {
	existing, err := s.repo.FindItem(ctx, tx, usuarioID, productoID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	p, err := s.productos.FindByID(ctx, tx, productoID)
	if err != nil {
		return nil, notFound(err, apierror.ProductNotFound())
	}

	if existing != nil {
		if err := s.repo.IncrementCantidad(ctx, tx, existing.ID, cantidad); err != nil {
			return nil, err
		}
		item, err := s.repo.FindItem(ctx, tx, usuarioID, productoID)
		if err != nil {
			return nil, err
		}
		if err := s.disponible(ctx, tx, p, item.Cantidad); err != nil {
			return nil, err
		}
		item.Producto = p
		return item, nil
	}

	if !p.Activo {
		return nil, apierror.ProductInactive()
	}
	if err := s.disponible(ctx, tx, p, cantidad); err != nil {
		return nil, err
	}
	item := &model.ItemCarrito{
		UsuarioID:      usuarioID,
		ProductoID:     productoID,
		Cantidad:       cantidad,
		PrecioUnitario: p.Precio,
	}
	if err := validation.Struct(item); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, tx, item); err != nil {
		return nil, err
	}
	item.Producto = p
	return item, nil
}

func (s *carritoService) UpdateQuantity(ctx context.Context, usuarioID, productoID uuid.UUID, cantidad int) (*dto.ItemCarritoResponse, error) {
	if cantidad < 0 {
		return nil, apierror.Validation("cantidad", "min=0", "La cantidad no puede ser negativa")
	}

	var item *model.ItemCarrito
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		item, err = s.repo.FindItem(ctx, tx, usuarioID, productoID)
		if err != nil {
			return notFound(err, apierror.NotFound("El producto no esta en el carrito"))
		}
		if cantidad == 0 {
			id := item.ID
			item = nil
			return s.repo.Delete(ctx, tx, id)
		}

		p, err := s.productos.FindByID(ctx, tx, productoID)
		if err != nil {
			return notFound(err, apierror.ProductNotFound())
		}
		if err := s.disponible(ctx, tx, p, cantidad); err != nil {
			return err
		}
		if err := s.repo.UpdateCantidad(ctx, tx, item.ID, cantidad); err != nil {
			return err
		}
		item.Cantidad = cantidad
		item.Producto = p
		return nil
	})
	if err != nil || item == nil {
		return nil, err
	}
	resp := mapItem(*item)
	return &resp, nil
}

func (s *carritoService) RemoveFromCart(ctx context.Context, usuarioID, productoID uuid.UUID) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		item, err := s.repo.FindItem(ctx, tx, usuarioID, productoID)
		if err != nil {
			return notFound(err, apierror.NotFound("El producto no esta en el carrito"))
		}
		return s.repo.Delete(ctx, tx, item.ID)
	})
}

// GetCart lists the user's rows. Total is the sum of cantidad × precio_unitario
// using the stored unit prices, not current product prices.
func (s *carritoService) GetCart(ctx context.Context, usuarioID uuid.UUID) (*dto.CarritoResponse, error) {
	items, err := s.repo.ListByUsuario(ctx, nil, usuarioID)
	if err != nil {
		return nil, err
	}
	resp := &dto.CarritoResponse{
		Items: make([]dto.ItemCarritoResponse, 0, len(items)),
		Total: decimal.Zero,
	}
	for _, i := range items {
		r := mapItem(i)
		resp.Items = append(resp.Items, r)
		resp.TotalItems += i.Cantidad
		resp.Total = resp.Total.Add(r.Subtotal)
	}
	return resp, nil
}

func (s *carritoService) ClearCart(ctx context.Context, usuarioID uuid.UUID) error {
	n, err := s.repo.Clear(ctx, nil, usuarioID)
	if err != nil {
		return err
	}
	log.Debug().Str("usuario_id", usuarioID.String()).Int64("items", n).Msg("carrito vaciado")
	return nil
}
