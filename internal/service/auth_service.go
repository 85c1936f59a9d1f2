package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"catalogo/internal/apierror"
	"catalogo/internal/config"
	"catalogo/internal/dto"
	"catalogo/internal/model"
	"catalogo/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BcryptCost is shared with cmd/seeduser so every stored hash uses the same cost.
const BcryptCost = 12

const msgCredencialesInvalidas = "Credenciales invalidas"

type AuthService interface {
	Registro(ctx context.Context, req dto.RegistroRequest) (*dto.LoginResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Me(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error)
}

type authService struct {
	repo repository.UsuarioRepository
	cfg  *config.Config
}

func NewAuthService(repo repository.UsuarioRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg}
}

func mapUsuario(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:        u.ID.String(),
		Nombre:    u.Nombre,
		Apellido:  u.Apellido,
		Email:     u.Email,
		Telefono:  u.Telefono,
		Direccion: u.Direccion,
		Rol:       u.Rol,
		Activo:    u.Activo,
	}
}

// Registro creates a cliente account and logs it in.
func (s *authService) Registro(ctx context.Context, req dto.RegistroRequest) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apierror.Duplicate("El email ya esta registrado")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), BcryptCost)
	if err != nil {
		return nil, err
	}
	user := &model.Usuario{
		Nombre:       strings.TrimSpace(req.Nombre),
		Apellido:     strings.TrimSpace(req.Apellido),
		Email:        email,
		PasswordHash: string(hash),
		Telefono:     req.Telefono,
		Direccion:    req.Direccion,
		Rol:          model.RolCliente,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, duplicate(err, "El email ya esta registrado")
	}
	return s.loginResponse(user)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Unauthorized(msgCredencialesInvalidas)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierror.Unauthorized(msgCredencialesInvalidas)
	}
	return s.loginResponse(user)
}

func (s *authService) Me(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apierror.NotFound("Usuario no encontrado"))
	}
	if !user.Activo {
		return nil, apierror.Unauthorized("Usuario inactivo")
	}
	resp := mapUsuario(user)
	return &resp, nil
}

func (s *authService) loginResponse(user *model.Usuario) (*dto.LoginResponse, error) {
	ttl := time.Duration(s.cfg.JWTExpirationHours) * time.Hour
	token, err := s.generateToken(user, ttl)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   s.cfg.JWTExpirationHours * 3600,
		User:        mapUsuario(user),
	}, nil
}

func (s *authService) generateToken(user *model.Usuario, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"rol":     user.Rol,
		"exp":     now.Add(duration).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
