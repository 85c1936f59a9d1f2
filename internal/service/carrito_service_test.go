package service

import (
	"context"
	"errors"
	"testing"

	"catalogo/internal/apierror"
	"catalogo/internal/dto"
	"catalogo/internal/model"
	"catalogo/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type carritoFixture struct {
	env     *testEnv
	usuario uuid.UUID
	sub     *dto.SubcategoriaResponse
}

func newCarritoFixture(t *testing.T) *carritoFixture {
	env := newTestEnv(t)
	cat := env.crearCategoria(t, "Bebidas")
	return &carritoFixture{
		env:     env,
		usuario: env.crearUsuario(t, "ana@example.com"),
		sub:     env.crearSubcategoria(t, cat.ID, "Gaseosas"),
	}
}

func (f *carritoFixture) filas(t *testing.T) []model.ItemCarrito {
	t.Helper()
	var items []model.ItemCarrito
	require.NoError(t, f.env.db.Where("usuario_id = ?", f.usuario).Find(&items).Error)
	return items
}

func TestCarrito_AddMergesRowsAndKeepsFirstPrice(t *testing.T) {
	f := newCarritoFixture(t)
	ctx := context.Background()
	prod := f.env.crearProducto(t, f.sub, "Cola", 100, 10)

	_, err := f.env.carrito.AddToCart(ctx, f.usuario, prod.ID, 2)
	require.NoError(t, err)

	nuevo := decimal.NewFromInt(250)
	_, err = f.env.productos.Actualizar(ctx, prod.ID, dto.ActualizarProductoRequest{Precio: &nuevo})
	require.NoError(t, err)

	item, err := f.env.carrito.AddToCart(ctx, f.usuario, prod.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Cantidad)
	assert.True(t, item.PrecioUnitario.Equal(decimal.NewFromInt(100)))
	assert.True(t, item.Subtotal.Equal(decimal.NewFromInt(500)))

	filas := f.filas(t)
	require.Len(t, filas, 1)
	assert.Equal(t, 5, filas[0].Cantidad)
}

func TestCarrito_AddRejections(t *testing.T) {
	f := newCarritoFixture(t)
	ctx := context.Background()
	prod := f.env.crearProducto(t, f.sub, "Cola", 100, 3)
	inactivo := f.env.crearProducto(t, f.sub, "Tonica", 100, 3)
	_, err := f.env.productos.Desactivar(ctx, inactivo.ID)
	require.NoError(t, err)

	_, err = f.env.carrito.AddToCart(ctx, f.usuario, prod.ID, 0)
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "invalid_quantity", apiErr.Code)

	_, err = f.env.carrito.AddToCart(ctx, f.usuario, uuid.New(), 1)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "product_not_found", apiErr.Code)
	assert.True(t, errors.Is(err, apierror.ErrNotFound))

	_, err = f.env.carrito.AddToCart(ctx, f.usuario, inactivo.ID, 1)
	assert.True(t, errors.Is(err, apierror.ErrProductInactive))

	_, err = f.env.carrito.AddToCart(ctx, f.usuario, prod.ID, 4)
	assert.True(t, errors.Is(err, apierror.ErrInsufficientStock))

	assert.Empty(t, f.filas(t))
}

func TestCarrito_IncrementBeyondStockRollsBack(t *testing.T) {
	f := newCarritoFixture(t)
	ctx := context.Background()
	prod := f.env.crearProducto(t, f.sub, "Cola", 100, 3)

	_, err := f.env.carrito.AddToCart(ctx, f.usuario, prod.ID, 2)
	require.NoError(t, err)

	_, err = f.env.carrito.AddToCart(ctx, f.usuario, prod.ID, 2)
	assert.True(t, errors.Is(err, apierror.ErrInsufficientStock))

	filas := f.filas(t)
	require.Len(t, filas, 1)
	assert.Equal(t, 2, filas[0].Cantidad)
}

// stockSpy records the availability checks made through the ledger and can
// veto them.
type stockSpy struct {
	StockService
	totals []int
	inTx   []bool
	deny   bool
}

func (s *stockSpy) HasStock(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, cantidad int) (bool, error) {
	s.totals = append(s.totals, cantidad)
	s.inTx = append(s.inTx, tx != nil)
	if s.deny {
		return false, nil
	}
	return s.StockService.HasStock(ctx, tx, productoID, cantidad)
}

func (f *carritoFixture) carritoCon(stock StockService) CarritoService {
	return NewCarritoService(repository.NewCarritoRepository(f.env.db), repository.NewProductoRepository(f.env.db), stock)
}

func TestCarrito_AvailabilityGoesThroughStockLedger(t *testing.T) {
	f := newCarritoFixture(t)
	ctx := context.Background()
	prod := f.env.crearProducto(t, f.sub, "Cola", 100, 10)
	spy := &stockSpy{StockService: f.env.stock}
	carrito := f.carritoCon(spy)

	_, err := carrito.AddToCart(ctx, f.usuario, prod.ID, 2)
	require.NoError(t, err)
	_, err = carrito.AddToCart(ctx, f.usuario, prod.ID, 3)
	require.NoError(t, err)
	_, err = carrito.UpdateQuantity(ctx, f.usuario, prod.ID, 4)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 5, 4}, spy.totals)
	assert.Equal(t, []bool{true, true, true}, spy.inTx)
}

func TestCarrito_StockLedgerVetoRejects(t *testing.T) {
	f := newCarritoFixture(t)
	ctx := context.Background()
	prod := f.env.crearProducto(t, f.sub, "Cola", 100, 10)
	spy := &stockSpy{StockService: f.env.stock}
	carrito := f.carritoCon(spy)

	_, err := carrito.AddToCart(ctx, f.usuario, prod.ID, 1)
	require.NoError(t, err)

	spy.deny = true
	_, err = carrito.AddToCart(ctx, f.usuario, prod.ID, 1)
	assert.True(t, errors.Is(err, apierror.ErrInsufficientStock))
	_, err = carrito.UpdateQuantity(ctx, f.usuario, prod.ID, 2)
	assert.True(t, errors.Is(err, apierror.ErrInsufficientStock))

	filas := f.filas(t)
	require.Len(t, filas, 1)
	assert.Equal(t, 1, filas[0].Cantidad)
}

func TestCarrito_UpdateQuantity(t *testing.T) {
	f := newCarritoFixture(t)
	ctx := context.Background()
	prod := f.env.crearProducto(t, f.sub, "Cola", 100, 5)

	_, err := f.env.carrito.UpdateQuantity(ctx, f.usuario, prod.ID, 2)
	assert.True(t, errors.Is(err, apierror.ErrNotFound))

	_, err = f.env.carrito.AddToCart(ctx, f.usuario, prod.ID, 1)
	require.NoError(t, err)

	_, err = f.env.carrito.UpdateQuantity(ctx, f.usuario, prod.ID, -1)
	assert.True(t, errors.Is(err, apierror.ErrValidation))

	_, err = f.env.carrito.UpdateQuantity(ctx, f.usuario, prod.ID, 6)
	assert.True(t, errors.Is(err, apierror.ErrInsufficientStock))

	item, err := f.env.carrito.UpdateQuantity(ctx, f.usuario, prod.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, item.Cantidad)
	assert.Equal(t, "Cola", item.Producto)

	item, err = f.env.carrito.UpdateQuantity(ctx, f.usuario, prod.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.Empty(t, f.filas(t))
}

func TestCarrito_GetRemoveClear(t *testing.T) {
	f := newCarritoFixture(t)
	ctx := context.Background()
	cola := f.env.crearProducto(t, f.sub, "Cola", 100, 5)
	lima := f.env.crearProducto(t, f.sub, "Lima", 150, 5)
	otro := f.env.crearUsuario(t, "beto@example.com")

	_, err := f.env.carrito.AddToCart(ctx, f.usuario, cola.ID, 2)
	require.NoError(t, err)
	_, err = f.env.carrito.AddToCart(ctx, f.usuario, lima.ID, 1)
	require.NoError(t, err)
	_, err = f.env.carrito.AddToCart(ctx, otro, lima.ID, 1)
	require.NoError(t, err)

	cart, err := f.env.carrito.GetCart(ctx, f.usuario)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.TotalItems)
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(350)))

	require.NoError(t, f.env.carrito.RemoveFromCart(ctx, f.usuario, cola.ID))
	assert.True(t, errors.Is(f.env.carrito.RemoveFromCart(ctx, f.usuario, cola.ID), apierror.ErrNotFound))

	require.NoError(t, f.env.carrito.ClearCart(ctx, f.usuario))
	cart, err = f.env.carrito.GetCart(ctx, f.usuario)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())

	// Other users keep their rows.
	cart, err = f.env.carrito.GetCart(ctx, otro)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestCarrito_ProductDeleteRemovesRows(t *testing.T) {
	f := newCarritoFixture(t)
	ctx := context.Background()
	prod := f.env.crearProducto(t, f.sub, "Cola", 100, 5)

	_, err := f.env.carrito.AddToCart(ctx, f.usuario, prod.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.env.productos.Eliminar(ctx, prod.ID))

	assert.Empty(t, f.filas(t))
}
