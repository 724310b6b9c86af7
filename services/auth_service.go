package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"schooladmin/middleware"
	"schooladmin/models"
	"schooladmin/utils"

	"gorm.io/gorm"
)

type AuthService struct {
	db     *gorm.DB
	issuer *middleware.TokenIssuer
}

func NewAuthService(db *gorm.DB, issuer *middleware.TokenIssuer) *AuthService {
	return &AuthService{db: db, issuer: issuer}
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         utils.UserShort `json:"user"`
}

// Login checks credentials and mints an access/refresh pair.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, *models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", in.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.NewAuthenticationError("Invalid username or password")
		}
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if err := utils.CheckPassword(in.Password, user.Password); err != nil {
		return nil, nil, utils.NewAuthenticationError("Invalid username or password")
	}
	if !user.IsActive {
		return nil, nil, utils.NewAuthorizationError("Account is disabled")
	}

	id := middleware.Identity{UserID: user.ID, Role: user.Role}
	access, err := s.issuer.IssueAccess(id)
	if err != nil {
		return nil, nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.issuer.IssueRefresh(id)
	if err != nil {
		return nil, nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &LoginResult{AccessToken: access, RefreshToken: refresh, User: utils.ToUserShort(user)}, &user, nil
}

// Refresh mints a new access token for an identity taken from a verified refresh token.
func (s *AuthService) Refresh(id middleware.Identity) (string, error) {
	token, err := s.issuer.IssueAccess(id)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return token, nil
}

// Me loads the account behind an identity.
func (s *AuthService) Me(ctx context.Context, id middleware.Identity) (*models.User, error) {
	var user models.User
	if err := requireRow(s.db.WithContext(ctx), &user, id.UserID, "User"); err != nil {
		return nil, err
	}
	return &user, nil
}
