package services

import (
	"context"

	"github.com/borjaoskins/raffle-backend/internal/config"
	"github.com/borjaoskins/raffle-backend/internal/models"
	"github.com/borjaoskins/raffle-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// AuthService defines the interface for admin authentication
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
}

type authService struct {
	cfg *config.Config
}

// NewAuthService creates a new AuthService. The admin console has a single
// operator; credentials live in config as a bcrypt hash, not in a user table.
func NewAuthService(cfg *config.Config) AuthService {
	return &authService{cfg: cfg}
}

func (s *authService) Login(_ context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if s.cfg.Admin.PasswordHash == "" {
		return nil, models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	token, expiresAt, err := utils.GenerateAdminJWT(s.cfg)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt.UnixMilli(),
	}, nil
}
