package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Nombre         string          `json:"nombre"          validate:"required,min=2,max=200"`
	Descripcion    *string         `json:"descripcion"`
	Precio         decimal.Decimal `json:"precio"          validate:"min=0"`
	Stock          int             `json:"stock"           validate:"min=0"`
	SubcategoriaID string          `json:"subcategoria_id" validate:"required,uuid"`
	CategoriaID    string          `json:"categoria_id"    validate:"required,uuid"`
}

type ActualizarProductoRequest struct {
	Nombre         *string          `json:"nombre"          validate:"omitempty,min=2,max=200"`
	Descripcion    *string          `json:"descripcion"`
	Precio         *decimal.Decimal `json:"precio"`
	SubcategoriaID *string          `json:"subcategoria_id" validate:"omitempty,uuid"`
	CategoriaID    *string          `json:"categoria_id"    validate:"omitempty,uuid"`
	Activo         *bool            `json:"activo"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Nombre         string `form:"nombre"`
	CategoriaID    string `form:"categoria_id"    validate:"omitempty,uuid"`
	SubcategoriaID string `form:"subcategoria_id" validate:"omitempty,uuid"`
	// Activo: "true" (default) | "false" | "all"
	Activo    string `form:"activo"`
	PrecioMin string `form:"precio_min" validate:"omitempty,numeric"`
	PrecioMax string `form:"precio_max" validate:"omitempty,numeric"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID             uuid.UUID       `json:"id"`
	Nombre         string          `json:"nombre"`
	Descripcion    *string         `json:"descripcion"`
	Precio         decimal.Decimal `json:"precio"`
	Stock          int             `json:"stock"`
	Imagen         *string         `json:"imagen"`
	SubcategoriaID uuid.UUID       `json:"subcategoria_id"`
	CategoriaID    uuid.UUID       `json:"categoria_id"`
	Activo         bool            `json:"activo"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}
