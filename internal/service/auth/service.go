package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/smart-enid/booking-api/internal/model"
	"github.com/smart-enid/booking-api/internal/repository"
	"github.com/smart-enid/booking-api/internal/service/audit"
	"github.com/smart-enid/booking-api/pkg/auth"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
	"github.com/smart-enid/booking-api/pkg/logger"
)

type Service struct {
	users   repository.UserRepository
	jwt     *auth.JWTService
	auditor *audit.Service
	logger  *logger.Logger
}

func NewService(users repository.UserRepository, jwt *auth.JWTService, auditor *audit.Service, l *logger.Logger) *Service {
	return &Service{users: users, jwt: jwt, auditor: auditor, logger: l}
}

// Register creates a citizen account. National id and email are unique;
// the repository reports collisions as conflicts.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &model.User{
		NationalID:   req.NationalID,
		Email:        req.Email,
		Phone:        req.Phone,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
		Role:         model.RoleCitizen,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	entry := audit.Entry(model.AuditActionCreate, model.AuditEntityUser,
		fmt.Sprintf("registered user %s", user.Email), user.ID, &user.ID)
	if err := s.auditor.Record(ctx, entry); err != nil {
		s.logger.Error("failed to record registration audit", err, "user_id", user.ID)
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password return the same error so accounts cannot be enumerated.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("invalid credentials"))
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized(fmt.Errorf("account is disabled"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("invalid credentials"))
	}

	token, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to issue token: %w", err))
	}

	entry := audit.Entry(model.AuditActionLogin, model.AuditEntityUser,
		fmt.Sprintf("user %s logged in", user.Email), user.ID, &user.ID)
	if err := s.auditor.Record(ctx, entry); err != nil {
		s.logger.Error("failed to record login audit", err, "user_id", user.ID)
	}

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.jwt.TokenExpiry().Seconds()),
		User:        user,
	}, nil
}

// CurrentUser resolves the authenticated user for request handling.
func (s *Service) CurrentUser(ctx context.Context, claims *auth.Claims) (*model.User, error) {
	id, err := claimsUserID(claims)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("user no longer exists"))
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized(fmt.Errorf("account is disabled"))
	}
	return user, nil
}
