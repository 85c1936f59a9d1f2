package infra

import (
	"fmt"
	"time"

	"catalogo/internal/config"
	"catalogo/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection for cfg.DBDriver and sizes the pool.
// Driver errors are translated to gorm.ErrDuplicatedKey and friends so the
// service layer can classify them without dialect knowledge.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	case "mysql":
		dialector = mysql.Open(cfg.DatabaseURL)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	level := logger.Silent
	if cfg.Env == "development" {
		level = logger.Warn
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == "sqlite" {
		// One writer at a time; a second connection would only see SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// Migrate creates or updates every table, then applies the idempotent
// index patches GORM tags cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Categoria{},
		&model.Subcategoria{},
		&model.Producto{},
		&model.Usuario{},
		&model.ItemCarrito{},
		&model.MovimientoStock{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches adds case-insensitive unique indexes on names. MySQL's
// default collation already compares case-insensitively, so the regular
// unique indexes cover it there.
func applySchemaPatches(db *gorm.DB) error {
	switch db.Dialector.Name() {
	case "postgres", "sqlite":
	default:
		return nil
	}
	patches := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_categorias_nombre_ci
		    ON categorias (lower(nombre))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_subcategorias_nombre_ci
		    ON subcategorias (categoria_id, lower(nombre))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_productos_nombre_ci
		    ON productos (categoria_id, lower(nombre))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_usuarios_email_ci
		    ON usuarios (lower(email))`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
