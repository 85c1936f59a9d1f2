package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RolCliente       = "cliente"
	RolAdministrador = "administrador"
)

// Usuario stores shop users with role-based access.
// Rol: "cliente" | "administrador"
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre       string    `gorm:"type:varchar(100);not null"`
	Apellido     string    `gorm:"type:varchar(100);not null"`
	Email        string    `gorm:"type:varchar(150);uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Telefono     *string   `gorm:"type:varchar(20)"`
	Direccion    *string   `gorm:"type:text"`
	Rol          string    `gorm:"type:varchar(20);not null;default:'cliente'"`
	Activo       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Usuario) TableName() string { return "usuarios" }

func (u *Usuario) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
