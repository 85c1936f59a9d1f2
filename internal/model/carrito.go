package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ItemCarrito is one cart row. There is at most one row per (usuario, producto).
// PrecioUnitario is the product price at the moment the row was first created
// and is never refreshed afterwards.
type ItemCarrito struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UsuarioID      uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_carrito_usuario_producto" validate:"required"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_carrito_usuario_producto" validate:"required"`
	Cantidad       int             `gorm:"not null;default:1;check:chk_carritos_cantidad,cantidad >= 1" validate:"min=1"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null" validate:"min=0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Usuario  *Usuario  `gorm:"foreignKey:UsuarioID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" validate:"-"`
	Producto *Producto `gorm:"foreignKey:ProductoID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" validate:"-"`
}

func (ItemCarrito) TableName() string { return "carritos" }

func (i *ItemCarrito) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Subtotal is Cantidad × PrecioUnitario.
func (i ItemCarrito) Subtotal() decimal.Decimal {
	return i.PrecioUnitario.Mul(decimal.NewFromInt(int64(i.Cantidad)))
}
