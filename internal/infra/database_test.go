package infra

import (
	"path/filepath"
	"testing"

	"catalogo/internal/config"
	"catalogo/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "catalogo.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := NewDatabase(&config.Config{DBDriver: "sqlite", DatabaseURL: dsn, Env: "test"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := NewDatabase(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestMigrate_CreatesTablesAndIsIdempotent(t *testing.T) {
	db := newSQLite(t)

	for _, table := range []string{"categorias", "subcategorias", "productos", "usuarios", "carritos", "movimientos_stock"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.NoError(t, Migrate(db))
}

func TestMigrate_DeleteCascadesThroughHierarchy(t *testing.T) {
	db := newSQLite(t)

	cat := &model.Categoria{Nombre: "Bebidas"}
	require.NoError(t, db.Create(cat).Error)
	sub := &model.Subcategoria{Nombre: "Gaseosas", CategoriaID: cat.ID}
	require.NoError(t, db.Create(sub).Error)
	prod := &model.Producto{
		Nombre: "Cola 500ml", Precio: decimal.NewFromInt(100), Stock: 3,
		SubcategoriaID: sub.ID, CategoriaID: cat.ID,
	}
	require.NoError(t, db.Create(prod).Error)
	user := &model.Usuario{Nombre: "Ana", Apellido: "Perez", Email: "ana@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&model.ItemCarrito{
		UsuarioID: user.ID, ProductoID: prod.ID, Cantidad: 1, PrecioUnitario: prod.Precio,
	}).Error)

	require.NoError(t, db.Delete(&model.Categoria{}, "id = ?", cat.ID).Error)

	var n int64
	db.Model(&model.Subcategoria{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&model.Producto{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&model.ItemCarrito{}).Count(&n)
	assert.Zero(t, n)
}

func TestMigrate_StockCheckConstraint(t *testing.T) {
	db := newSQLite(t)

	cat := &model.Categoria{Nombre: "Bebidas"}
	require.NoError(t, db.Create(cat).Error)
	sub := &model.Subcategoria{Nombre: "Aguas", CategoriaID: cat.ID}
	require.NoError(t, db.Create(sub).Error)
	prod := &model.Producto{Nombre: "Agua 1L", Precio: decimal.NewFromInt(50), SubcategoriaID: sub.ID, CategoriaID: cat.ID}
	require.NoError(t, db.Create(prod).Error)

	err := db.Model(&model.Producto{}).Where("id = ?", prod.ID).Update("stock", -1).Error
	assert.Error(t, err)
}

func TestMigrate_CaseInsensitiveCategoryName(t *testing.T) {
	db := newSQLite(t)

	require.NoError(t, db.Create(&model.Categoria{Nombre: "Bebidas"}).Error)
	err := db.Create(&model.Categoria{Nombre: "BEBIDAS"}).Error
	assert.Error(t, err)
}
