package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subcategoria belongs to exactly one Categoria. Its name is unique within
// that category, so two categories may share a subcategory name.
type Subcategoria struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_subcategoria_nombre_categoria" validate:"required,min=2,max=100"`
	Descripcion *string   `gorm:"type:text"`
	CategoriaID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_subcategoria_nombre_categoria" validate:"required"`
	Activo      bool      `gorm:"not null;default:true;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Categoria *Categoria `gorm:"foreignKey:CategoriaID" validate:"-"`
	Productos []Producto `gorm:"foreignKey:SubcategoriaID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" validate:"-"`
}

func (Subcategoria) TableName() string { return "subcategorias" }

func (s *Subcategoria) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
