package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Categoria is the root of the catalog hierarchy.
// Deactivating a category deactivates every subcategory and product below it;
// reactivating it does not touch its descendants.
type Categoria struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre      string    `gorm:"type:varchar(100);uniqueIndex;not null" validate:"required,min=2,max=100"`
	Descripcion *string   `gorm:"type:text"`
	Activo      bool      `gorm:"not null;default:true;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Subcategorias []Subcategoria `gorm:"foreignKey:CategoriaID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" validate:"-"`
}

// TableName overrides GORM's default singular → plural logic for Spanish names.
func (Categoria) TableName() string { return "categorias" }

func (c *Categoria) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
