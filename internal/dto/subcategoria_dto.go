package dto

import "github.com/google/uuid"

type CrearSubcategoriaRequest struct {
	Nombre      string  `json:"nombre"       validate:"required,min=2,max=100"`
	Descripcion *string `json:"descripcion"`
	CategoriaID string  `json:"categoria_id" validate:"required,uuid"`
}

type ActualizarSubcategoriaRequest struct {
	Nombre      *string `json:"nombre"      validate:"omitempty,min=2,max=100"`
	Descripcion *string `json:"descripcion"`
	Activo      *bool   `json:"activo"`
}

type SubcategoriaFilter struct {
	CategoriaID string `form:"categoria_id" validate:"omitempty,uuid"`
	// Activo: "true" (default) | "false" | "all"
	Activo string `form:"activo"`
}

type SubcategoriaResponse struct {
	ID             uuid.UUID `json:"id"`
	Nombre         string    `json:"nombre"`
	Descripcion    *string   `json:"descripcion,omitempty"`
	CategoriaID    uuid.UUID `json:"categoria_id"`
	Activo         bool      `json:"activo"`
	TotalProductos *int64    `json:"total_productos,omitempty"`
}
