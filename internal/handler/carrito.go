package handler

import (
	"net/http"

	"catalogo/internal/dto"
	"catalogo/internal/middleware"
	"catalogo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CarritoHandler serves the authenticated user's cart. The user always comes
// from the token, never from the request body.
type CarritoHandler struct{ svc service.CarritoService }

func NewCarritoHandler(svc service.CarritoService) *CarritoHandler {
	return &CarritoHandler{svc: svc}
}

func usuarioID(c *gin.Context) uuid.UUID { return middleware.GetClaims(c).UUID() }

// Obtener GET /v1/carrito
func (h *CarritoHandler) Obtener(c *gin.Context) {
	resp, err := h.svc.GetCart(c.Request.Context(), usuarioID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Agregar POST /v1/carrito
func (h *CarritoHandler) Agregar(c *gin.Context) {
	var req dto.AgregarCarritoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddToCart(c.Request.Context(), usuarioID(c), uuid.MustParse(req.ProductoID), req.Cantidad)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarCantidad PUT /v1/carrito/:productoId
func (h *CarritoHandler) ActualizarCantidad(c *gin.Context) {
	productoID, ok := parseID(c, "productoId")
	if !ok {
		return
	}
	var req dto.ActualizarCantidadRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateQuantity(c.Request.Context(), usuarioID(c), productoID, req.Cantidad)
	if err != nil {
		respondError(c, err)
		return
	}
	if resp == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Quitar DELETE /v1/carrito/:productoId
func (h *CarritoHandler) Quitar(c *gin.Context) {
	productoID, ok := parseID(c, "productoId")
	if !ok {
		return
	}
	if err := h.svc.RemoveFromCart(c.Request.Context(), usuarioID(c), productoID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Vaciar DELETE /v1/carrito
func (h *CarritoHandler) Vaciar(c *gin.Context) {
	if err := h.svc.ClearCart(c.Request.Context(), usuarioID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
