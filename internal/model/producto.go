package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Producto hangs from a Subcategoria and, redundantly, from that
// subcategory's Categoria. CategoriaID must always equal
// Subcategoria.CategoriaID; the write path enforces it.
type Producto struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Nombre      string          `gorm:"type:varchar(200);not null;index;uniqueIndex:idx_producto_nombre_categoria" validate:"required,min=2,max=200"`
	Descripcion *string         `gorm:"type:text"`
	Precio      decimal.Decimal `gorm:"type:decimal(10,2);not null;check:chk_productos_precio,precio >= 0" validate:"min=0"`
	Stock       int             `gorm:"not null;default:0;check:chk_productos_stock,stock >= 0" validate:"min=0"`
	// Imagen is a bare filename relative to UPLOAD_PATH, e.g. 1718000000000-cola.jpg
	Imagen         *string   `gorm:"type:varchar(255)" validate:"omitempty,max=255,imagen"`
	SubcategoriaID uuid.UUID `gorm:"type:uuid;not null;index" validate:"required"`
	CategoriaID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_producto_nombre_categoria" validate:"required"`
	Activo         bool      `gorm:"not null;default:true;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Subcategoria *Subcategoria `gorm:"foreignKey:SubcategoriaID" validate:"-"`
	Categoria    *Categoria    `gorm:"foreignKey:CategoriaID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" validate:"-"`
}

func (Producto) TableName() string { return "productos" }

func (p *Producto) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
