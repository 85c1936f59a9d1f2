package handler

import (
	"net/http"

	"catalogo/internal/dto"
	"catalogo/internal/service"

	"github.com/gin-gonic/gin"
)

type InventarioHandler struct{ svc service.StockService }

func NewInventarioHandler(svc service.StockService) *InventarioHandler {
	return &InventarioHandler{svc: svc}
}

// ListarMovimientos GET /v1/inventario/movimientos?producto_id=&tipo=&page=&limit=
func (h *InventarioHandler) ListarMovimientos(c *gin.Context) {
	var filter dto.MovimientoStockFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
