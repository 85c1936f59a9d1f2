package service

import (
	"context"
	"time"

	"catalogo/internal/apierror"
	"catalogo/internal/dto"
	"catalogo/internal/model"
	"catalogo/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// StockService owns every change to productos.stock. Each change writes a
// MovimientoStock row on the same transaction.
//
// Methods taking tx join the caller's transaction; a nil tx makes them open
// their own.
type StockService interface {
	HasStock(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, cantidad int) (bool, error)
	// ReduceStock fails with InsufficientStock when stock < cantidad at the
	// moment of the write, whatever an earlier HasStock reported.
	ReduceStock(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, cantidad int, motivo string) (*model.Producto, error)
	IncreaseStock(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, cantidad int, motivo string) (*model.Producto, error)
	ListarMovimientos(ctx context.Context, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error)
}

type stockService struct {
	productos   repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
	cache       Cache
}

func NewStockService(productos repository.ProductoRepository, movimientos repository.MovimientoStockRepository, cache Cache) StockService {
	return &stockService{productos: productos, movimientos: movimientos, cache: cacheOrNop(cache)}
}

func (s *stockService) inTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return runTx(ctx, s.productos.DB(), fn)
}

func (s *stockService) HasStock(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, cantidad int) (bool, error) {
	p, err := s.productos.FindByID(ctx, tx, productoID)
	if err != nil {
		return false, notFound(err, apierror.NotFound(msgProductoNoEncontrado))
	}
	return p.Stock >= cantidad, nil
}

func (s *stockService) ReduceStock(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, cantidad int, motivo string) (*model.Producto, error) {
	if cantidad < 1 {
		return nil, apierror.InvalidQuantity()
	}
	var p *model.Producto
	err := s.inTx(ctx, tx, func(tx *gorm.DB) error {
		n, err := s.productos.DecrementStock(ctx, tx, productoID, cantidad)
		if err != nil {
			return err
		}
		p, err = s.productos.FindByID(ctx, tx, productoID)
		if err != nil {
			return notFound(err, apierror.NotFound(msgProductoNoEncontrado))
		}
		if n == 0 {
			return apierror.InsufficientStock(p.Nombre)
		}
		return s.registrar(ctx, tx, p, model.MovimientoVenta, -cantidad, motivo)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, productoCacheKey(productoID))
	log.Debug().Str("producto_id", productoID.String()).Int("cantidad", cantidad).
		Int("stock", p.Stock).Msg("stock descontado")
	return p, nil
}

func (s *stockService) IncreaseStock(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, cantidad int, motivo string) (*model.Producto, error) {
	if cantidad < 1 {
		return nil, apierror.InvalidQuantity()
	}
	var p *model.Producto
	err := s.inTx(ctx, tx, func(tx *gorm.DB) error {
		n, err := s.productos.IncrementStock(ctx, tx, productoID, cantidad)
		if err != nil {
			return err
		}
		if n == 0 {
			return apierror.NotFound(msgProductoNoEncontrado)
		}
		p, err = s.productos.FindByID(ctx, tx, productoID)
		if err != nil {
			return notFound(err, apierror.NotFound(msgProductoNoEncontrado))
		}
		return s.registrar(ctx, tx, p, model.MovimientoReposicion, cantidad, motivo)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, productoCacheKey(productoID))
	log.Debug().Str("producto_id", productoID.String()).Int("cantidad", cantidad).
		Int("stock", p.Stock).Msg("stock incrementado")
	return p, nil
}

// registrar writes the ledger row for a change already applied to p.
// delta is signed: negative for outflows.
func (s *stockService) registrar(ctx context.Context, tx *gorm.DB, p *model.Producto, tipo string, delta int, motivo string) error {
	return s.movimientos.Create(ctx, tx, &model.MovimientoStock{
		ProductoID:    p.ID,
		Tipo:          tipo,
		Cantidad:      delta,
		StockAnterior: p.Stock - delta,
		StockNuevo:    p.Stock,
		Motivo:        motivo,
	})
}

func (s *stockService) ListarMovimientos(ctx context.Context, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error) {
	f := repository.MovimientoStockFilter{Tipo: filter.Tipo, Page: filter.Page, Limit: filter.Limit}
	if filter.ProductoID != "" {
		id, err := parseUUID("producto_id", filter.ProductoID)
		if err != nil {
			return nil, err
		}
		f.ProductoID = &id
	}
	if filter.Desde != "" {
		d, err := parseFecha("desde", filter.Desde)
		if err != nil {
			return nil, err
		}
		f.Desde = &d
	}
	if filter.Hasta != "" {
		h, err := parseFecha("hasta", filter.Hasta)
		if err != nil {
			return nil, err
		}
		// hasta names a whole day
		h = h.AddDate(0, 0, 1)
		f.Hasta = &h
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 500 {
		f.Limit = 100
	}

	movs, total, err := s.movimientos.List(ctx, nil, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.MovimientoStockResponse, 0, len(movs))
	for _, m := range movs {
		r := dto.MovimientoStockResponse{
			ID:            m.ID,
			ProductoID:    m.ProductoID,
			Tipo:          m.Tipo,
			Cantidad:      m.Cantidad,
			StockAnterior: m.StockAnterior,
			StockNuevo:    m.StockNuevo,
			Motivo:        m.Motivo,
			CreatedAt:     m.CreatedAt.Format(time.RFC3339),
		}
		if m.Producto != nil {
			r.Producto = m.Producto.Nombre
		}
		data = append(data, r)
	}
	return &dto.MovimientoStockListResponse{Data: data, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// fechaLayout is the query-string date format of the ledger filters.
const fechaLayout = "2006-01-02"

func parseFecha(field, raw string) (time.Time, error) {
	t, err := time.ParseInLocation(fechaLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, apierror.Validation(field, "datetime="+fechaLayout,
			"El campo "+field+" debe tener el formato AAAA-MM-DD")
	}
	return t, nil
}
