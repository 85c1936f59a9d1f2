package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"catalogo/internal/config"
	"catalogo/internal/dto"
	"catalogo/internal/infra"
	"catalogo/internal/model"
	"catalogo/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingScheduler captures image deletions instead of touching disk.
type recordingScheduler struct {
	mu      sync.Mutex
	nombres []string
}

func (r *recordingScheduler) EliminarImagen(_ context.Context, nombre string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nombres = append(r.nombres, nombre)
}

// memCache is an in-process Cache used to check invalidation.
type memCache struct {
	mu   sync.Mutex
	data map[string]any
}

func newMemCache() *memCache { return &memCache{data: map[string]any{}} }

func (c *memCache) Get(_ context.Context, key string, dest any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false
	}
	if d, ok := dest.(*dto.ProductoResponse); ok {
		*d = v.(dto.ProductoResponse)
		return true
	}
	return false
}

func (c *memCache) Set(_ context.Context, key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = v
}

func (c *memCache) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.data, k)
		}
	}
}

type testEnv struct {
	db            *gorm.DB
	categorias    CategoriaService
	subcategorias SubcategoriaService
	productos     ProductoService
	stock         StockService
	carrito       CarritoService
	auth          AuthService
	usuarios      repository.UsuarioRepository
	cache         *memCache
	imagenes      *recordingScheduler
}

// newTestEnv wires every service against a fresh SQLite file.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "catalogo.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	cfg := &config.Config{
		DBDriver:           "sqlite",
		DatabaseURL:        dsn,
		Env:                "test",
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
	}
	db, err := infra.NewDatabase(cfg)
	require.NoError(t, err)
	require.NoError(t, infra.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	catRepo := repository.NewCategoriaRepository(db)
	subRepo := repository.NewSubcategoriaRepository(db)
	prodRepo := repository.NewProductoRepository(db)
	usrRepo := repository.NewUsuarioRepository(db)
	cascade := NewCascadeEngine(catRepo, subRepo, prodRepo)
	cache := newMemCache()
	imagenes := &recordingScheduler{}
	stock := NewStockService(prodRepo, repository.NewMovimientoStockRepository(db), cache)

	return &testEnv{
		db:            db,
		categorias:    NewCategoriaService(catRepo, prodRepo, cascade, cache, imagenes),
		subcategorias: NewSubcategoriaService(subRepo, prodRepo, cascade, cache, imagenes),
		productos:     NewProductoService(prodRepo, cascade, cache, imagenes),
		stock:         stock,
		carrito:       NewCarritoService(repository.NewCarritoRepository(db), prodRepo, stock),
		auth:          NewAuthService(usrRepo, cfg),
		usuarios:      usrRepo,
		cache:         cache,
		imagenes:      imagenes,
	}
}

func (e *testEnv) crearCategoria(t *testing.T, nombre string) *dto.CategoriaResponse {
	t.Helper()
	c, err := e.categorias.Crear(context.Background(), dto.CrearCategoriaRequest{Nombre: nombre})
	require.NoError(t, err)
	return c
}

func (e *testEnv) crearSubcategoria(t *testing.T, categoriaID uuid.UUID, nombre string) *dto.SubcategoriaResponse {
	t.Helper()
	s, err := e.subcategorias.Crear(context.Background(), dto.CrearSubcategoriaRequest{
		Nombre:      nombre,
		CategoriaID: categoriaID.String(),
	})
	require.NoError(t, err)
	return s
}

func (e *testEnv) crearProducto(t *testing.T, sub *dto.SubcategoriaResponse, nombre string, precio int64, stock int) *dto.ProductoResponse {
	t.Helper()
	p, err := e.productos.Crear(context.Background(), dto.CrearProductoRequest{
		Nombre:         nombre,
		Precio:         decimal.NewFromInt(precio),
		Stock:          stock,
		SubcategoriaID: sub.ID.String(),
		CategoriaID:    sub.CategoriaID.String(),
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) crearUsuario(t *testing.T, email string) uuid.UUID {
	t.Helper()
	u := &model.Usuario{Nombre: "Test", Apellido: "User", Email: email, PasswordHash: "x", Rol: model.RolCliente, Activo: true}
	require.NoError(t, e.usuarios.Create(context.Background(), u))
	return u.ID
}

func (e *testEnv) activo(t *testing.T, table string, id uuid.UUID) bool {
	t.Helper()
	var activo bool
	require.NoError(t, e.db.Table(table).Select("activo").Where("id = ?", id).Scan(&activo).Error)
	return activo
}

func (e *testEnv) stockDe(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var p model.Producto
	require.NoError(t, e.db.First(&p, "id = ?", id).Error)
	return p.Stock
}
