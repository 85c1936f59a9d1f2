package handler

import (
	"context"
	"mime/multipart"
	"net/http"

	"catalogo/internal/apierror"
	"catalogo/internal/dto"
	"catalogo/internal/model"
	"catalogo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ImagenStore persists uploaded product images. infra.FileStorage implements it.
type ImagenStore interface {
	Guardar(fh *multipart.FileHeader) (string, error)
	Eliminar(nombre string) error
}

type ProductosHandler struct {
	svc      service.ProductoService
	stock    service.StockService
	imagenes ImagenStore
}

func NewProductosHandler(svc service.ProductoService, stock service.StockService, imagenes ImagenStore) *ProductosHandler {
	return &ProductosHandler{svc: svc, stock: stock, imagenes: imagenes}
}

// Crear POST /v1/productos
func (h *ProductosHandler) Crear(c *gin.Context) {
	var req dto.CrearProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar GET /v1/productos
func (h *ProductosHandler) Listar(c *gin.Context) {
	var filter dto.ProductoFilter
	if !bindQuery(c, &filter) {
		return
	}
	filter.Activo = activoVisible(c, filter.Activo)
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerPorID GET /v1/productos/:id
func (h *ProductosHandler) ObtenerPorID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id, activoVisible(c, "all") == "all")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar PUT /v1/productos/:id
func (h *ProductosHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Desactivar PATCH /v1/productos/:id/desactivar
func (h *ProductosHandler) Desactivar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Desactivar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reactivar PATCH /v1/productos/:id/reactivar
func (h *ProductosHandler) Reactivar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Reactivar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar DELETE /v1/productos/:id
func (h *ProductosHandler) Eliminar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubirImagen POST /v1/productos/:id/imagen (multipart, field "imagen")
func (h *ProductosHandler) SubirImagen(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("imagen")
	if err != nil {
		respondError(c, apierror.Validation("imagen", "required", "Debe adjuntar una imagen"))
		return
	}
	nombre, err := h.imagenes.Guardar(fh)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.ActualizarImagen(c.Request.Context(), id, nombre)
	if err != nil {
		if rmErr := h.imagenes.Eliminar(nombre); rmErr != nil {
			log.Warn().Err(rmErr).Str("imagen", nombre).Msg("no se pudo eliminar la imagen huerfana")
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReducirStock POST /v1/productos/:id/stock/reducir
func (h *ProductosHandler) ReducirStock(c *gin.Context) {
	h.moverStock(c, h.stock.ReduceStock)
}

// AumentarStock POST /v1/productos/:id/stock/aumentar
func (h *ProductosHandler) AumentarStock(c *gin.Context) {
	h.moverStock(c, h.stock.IncreaseStock)
}

type stockOp func(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, cantidad int, motivo string) (*model.Producto, error)

func (h *ProductosHandler) moverStock(c *gin.Context, op stockOp) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.MovimientoStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	p, err := op(c.Request.Context(), nil, id, req.Cantidad, req.Motivo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StockResponse{ProductoID: p.ID, Stock: p.Stock})
}
