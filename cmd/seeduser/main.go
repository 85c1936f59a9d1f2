// Command seeduser creates or updates the administrator account.
// Usage: go run ./cmd/seeduser -email admin@catalogo.local -password secreto123
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"catalogo/internal/config"
	"catalogo/internal/infra"
	"catalogo/internal/model"
	"catalogo/internal/repository"
	"catalogo/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	email := flag.String("email", "admin@catalogo.local", "email del administrador")
	password := flag.String("password", "", "password del administrador (obligatorio)")
	nombre := flag.String("nombre", "Admin", "nombre")
	apellido := flag.String("apellido", "Catalogo", "apellido")
	flag.Parse()

	if len(*password) < 8 {
		log.Fatal().Msg("-password debe tener al menos 8 caracteres")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := infra.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), service.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt error")
	}

	u := &model.Usuario{
		Nombre:       *nombre,
		Apellido:     *apellido,
		Email:        *email,
		PasswordHash: string(hash),
		Rol:          model.RolAdministrador,
		Activo:       true,
	}
	if err := repository.NewUsuarioRepository(db).Upsert(context.Background(), u); err != nil {
		log.Fatal().Err(err).Msg("upsert error")
	}
	log.Info().Str("email", *email).Msg("administrador creado/actualizado")
}
