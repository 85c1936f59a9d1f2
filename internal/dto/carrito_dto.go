package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AgregarCarritoRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"min=1"`
}

type ActualizarCantidadRequest struct {
	// Cantidad 0 removes the row.
	Cantidad int `json:"cantidad" validate:"min=0"`
}

type ItemCarritoResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductoID     uuid.UUID       `json:"producto_id"`
	Producto       string          `json:"producto,omitempty"`
	Imagen         *string         `json:"imagen,omitempty"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type CarritoResponse struct {
	Items      []ItemCarritoResponse `json:"items"`
	TotalItems int                   `json:"total_items"`
	Total      decimal.Decimal       `json:"total"`
}
