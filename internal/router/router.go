package router

import (
	"time"

	"catalogo/internal/config"
	"catalogo/internal/handler"
	"catalogo/internal/infra"
	"catalogo/internal/middleware"
	"catalogo/internal/model"
	"catalogo/internal/repository"
	"catalogo/internal/service"
	"catalogo/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, storage *infra.FileStorage) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.APIRateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	cache := infra.NewRedisCache(rdb, time.Duration(cfg.CacheTTLMinutes)*time.Minute)
	dispatcher := worker.NewDispatcher(rdb, storage)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	categoriaRepo := repository.NewCategoriaRepository(db)
	subcategoriaRepo := repository.NewSubcategoriaRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	carritoRepo := repository.NewCarritoRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	cascade := service.NewCascadeEngine(categoriaRepo, subcategoriaRepo, productoRepo)
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	categoriaSvc := service.NewCategoriaService(categoriaRepo, productoRepo, cascade, cache, dispatcher)
	subcategoriaSvc := service.NewSubcategoriaService(subcategoriaRepo, productoRepo, cascade, cache, dispatcher)
	productoSvc := service.NewProductoService(productoRepo, cascade, cache, dispatcher)
	stockSvc := service.NewStockService(productoRepo, movimientoStockRepo, cache)
	carritoSvc := service.NewCarritoService(carritoRepo, productoRepo, stockSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	categoriasH := handler.NewCategoriasHandler(categoriaSvc)
	subcategoriasH := handler.NewSubcategoriasHandler(subcategoriaSvc)
	productosH := handler.NewProductosHandler(productoSvc, stockSvc, storage)
	carritoH := handler.NewCarritoHandler(carritoSvc)
	inventarioH := handler.NewInventarioHandler(stockSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.Static("/uploads", storage.Dir())

	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	admin := middleware.RequireRole(model.RolAdministrador)

	// Auth
	auth := r.Group("/v1/auth")
	{
		auth.POST("/registro", middleware.LoginRateLimiter(), authH.Registro)
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.GET("/me", jwtMW, authH.Me)
	}

	// Catalog reads: anonymous callers see active rows only; an admin token
	// unlocks the activo filter.
	public := r.Group("/v1", middleware.OptionalJWTAuth(cfg.JWTSecret))
	{
		public.GET("/categorias", categoriasH.Listar)
		public.GET("/categorias/:id", categoriasH.ObtenerPorID)
		public.GET("/subcategorias", subcategoriasH.Listar)
		public.GET("/subcategorias/:id", subcategoriasH.ObtenerPorID)
		public.GET("/productos", productosH.Listar)
		public.GET("/productos/:id", productosH.ObtenerPorID)
	}

	// Writes: administrador only
	v1 := r.Group("/v1", jwtMW)
	{
		categorias := v1.Group("/categorias", admin)
		{
			categorias.POST("", categoriasH.Crear)
			categorias.PUT("/:id", categoriasH.Actualizar)
			categorias.PATCH("/:id/desactivar", categoriasH.Desactivar)
			categorias.PATCH("/:id/reactivar", categoriasH.Reactivar)
			categorias.DELETE("/:id", categoriasH.Eliminar)
		}

		subcategorias := v1.Group("/subcategorias", admin)
		{
			subcategorias.POST("", subcategoriasH.Crear)
			subcategorias.PUT("/:id", subcategoriasH.Actualizar)
			subcategorias.PATCH("/:id/desactivar", subcategoriasH.Desactivar)
			subcategorias.PATCH("/:id/reactivar", subcategoriasH.Reactivar)
			subcategorias.DELETE("/:id", subcategoriasH.Eliminar)
		}

		prods := v1.Group("/productos", admin)
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.PATCH("/:id/desactivar", productosH.Desactivar)
			prods.PATCH("/:id/reactivar", productosH.Reactivar)
			prods.DELETE("/:id", productosH.Eliminar)
			prods.POST("/:id/imagen", productosH.SubirImagen)
			prods.POST("/:id/stock/reducir", productosH.ReducirStock)
			prods.POST("/:id/stock/aumentar", productosH.AumentarStock)
		}

		v1.GET("/inventario/movimientos", admin, inventarioH.ListarMovimientos)

		// Cart: any authenticated user, scoped to the token user
		carrito := v1.Group("/carrito")
		{
			carrito.GET("", carritoH.Obtener)
			carrito.POST("", carritoH.Agregar)
			carrito.DELETE("", carritoH.Vaciar)
			carrito.PUT("/:productoId", carritoH.ActualizarCantidad)
			carrito.DELETE("/:productoId", carritoH.Quitar)
		}
	}

	// Swagger UI outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
