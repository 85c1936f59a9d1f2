package dto

import (
	"github.com/google/uuid"
)

type MovimientoStockRequest struct {
	Cantidad int    `json:"cantidad" validate:"min=1"`
	Motivo   string `json:"motivo"   validate:"max=255"`
}

type MovimientoStockFilter struct {
	ProductoID string `form:"producto_id" validate:"omitempty,uuid"`
	Tipo       string `form:"tipo"        validate:"omitempty,oneof=venta reposicion devolucion ajuste"`
	Desde      string `form:"desde"       validate:"omitempty,datetime=2006-01-02"`
	Hasta      string `form:"hasta"       validate:"omitempty,datetime=2006-01-02"`
	Page       int    `form:"page,default=1"    validate:"min=1"`
	Limit      int    `form:"limit,default=100" validate:"min=1,max=500"`
}

type StockResponse struct {
	ProductoID uuid.UUID `json:"producto_id"`
	Stock      int       `json:"stock"`
}

type MovimientoStockResponse struct {
	ID            uuid.UUID `json:"id"`
	ProductoID    uuid.UUID `json:"producto_id"`
	Producto      string    `json:"producto,omitempty"`
	Tipo          string    `json:"tipo"`
	Cantidad      int       `json:"cantidad"`
	StockAnterior int       `json:"stock_anterior"`
	StockNuevo    int       `json:"stock_nuevo"`
	Motivo        string    `json:"motivo"`
	CreatedAt     string    `json:"created_at"`
}

type MovimientoStockListResponse struct {
	Data  []MovimientoStockResponse `json:"data"`
	Total int64                     `json:"total"`
	Page  int                       `json:"page"`
	Limit int                       `json:"limit"`
}
