package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kersko/storefront/internal/hash"
	"github.com/kersko/storefront/internal/models"
	"github.com/kersko/storefront/internal/repo"
	"github.com/kersko/storefront/internal/tokens"
	"github.com/kersko/storefront/internal/transport"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
	minPasswordLen  = 6
)

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password required", ErrValidation)
	}
	if len(req.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	if _, err := s.Repo.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("%w: username taken", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	// Self-registration always produces a shopper account.
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Address:      req.Address,
		Contact:      req.Contact,
		Role:         "user",
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*transport.TokenPairResponse, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password required", ErrValidation)
	}

	user, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	return s.issueTokens(ctx, user.ID, user.Role)
}

// Refresh rotates the token pair: the presented refresh token is revoked and
// a fresh pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*transport.TokenPairResponse, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil || claims == nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}

	stored, err := s.Repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: refresh token revoked or expired", ErrUnauthorized)
	}

	if err := s.Repo.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, stored.UserID, stored.Role)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, refreshToken)
}

func (s *AuthService) issueTokens(ctx context.Context, userID uint, role string) (*transport.TokenPairResponse, error) {
	now := time.Now().UTC()
	accessExp := now.Add(accessTokenTTL)
	refreshExp := now.Add(refreshTokenTTL)

	accessToken, err := tokens.NewAccessToken(s.JWTSecret, userID, role, accessExp)
	if err != nil {
		return nil, err
	}
	refreshToken, err := tokens.NewRefreshToken(s.RefreshSecret, userID, role, refreshExp)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.SaveRefreshToken(ctx, &models.RefreshToken{
		Token:     refreshToken,
		UserID:    userID,
		Role:      role,
		ExpiresAt: refreshExp,
	}); err != nil {
		return nil, err
	}

	return &transport.TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp.Unix(),
		RefreshExp:   refreshExp.Unix(),
	}, nil
}
