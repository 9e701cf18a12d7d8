package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"greencycle/internal/model"
	"greencycle/internal/repository"
	"greencycle/internal/ws"
	"greencycle/pkg/jwt"
	"greencycle/pkg/logger"
	"greencycle/pkg/validator"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionTimeout     = errors.New("session expired due to inactivity")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

type AuthService interface {
	Login(req *LoginRequest) (*LoginResponse, error)
	ResetPassword(req *ResetPasswordRequest) error
	ValidateToken(tokenString string) (*TokenValidationResponse, error)
	Heartbeat(userID uuid.UUID) error
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

// CheckSession decides whether a token with tokenVersion still represents a
// live session of user at now.
func CheckSession(user *model.User, tokenVersion string, now time.Time) error {
	if !user.IsActive {
		return ErrUserInactive
	}
	if user.TokenVersion != tokenVersion {
		return ErrSessionReplaced
	}
	if user.SessionIdle(now) {
		return ErrSessionTimeout
	}
	return nil
}

type authService struct {
	userRepo  repository.UserRepository
	publisher ws.Publisher
}

func NewAuthService(userRepo repository.UserRepository, publisher ws.Publisher) AuthService {
	return &authService{
		userRepo:  userRepo,
		publisher: publisher,
	}
}

func (s *authService) Login(req *LoginRequest) (*LoginResponse, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}

	// single session: a new version invalidates tokens issued earlier
	now := time.Now()
	user.TokenVersion = uuid.New().String()
	user.LastSeenAt = &now
	if err := s.userRepo.Update(user); err != nil {
		logger.LogError("service.auth", "Login", req.Email, nil, err)
		return nil, fmt.Errorf("update session: %w", err)
	}

	token, err := jwt.GenerateToken(user.ID, user.Email, user.FullName, user.RoleCode(), user.GetPrivilegeCodes(), user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

// ResetPassword reports an unknown email as invalid credentials so the
// endpoint does not reveal which emails are registered.
func (s *authService) ResetPassword(req *ResetPasswordRequest) error {
	if err := validator.Check(req); err != nil {
		return err
	}

	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return ErrInvalidCredentials
	}
	if !user.CheckPassword(req.OldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(req.NewPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	// rotating the version logs out every open session
	user.TokenVersion = uuid.New().String()
	return s.userRepo.Update(user)
}

func (s *authService) ValidateToken(tokenString string) (*TokenValidationResponse, error) {
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, jwt.ErrInvalidToken
	}
	if err := CheckSession(user, claims.TokenVersion, time.Now()); err != nil {
		return nil, err
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

func (s *authService) Heartbeat(userID uuid.UUID) error {
	if err := s.userRepo.UpdateLastSeen(userID); err != nil {
		return err
	}

	s.publisher.Publish(ws.Event{
		Type:   "user_status_update",
		Action: "online",
		Data: map[string]interface{}{
			"user_id":      userID.String(),
			"status":       "online",
			"last_seen_at": time.Now(),
		},
		SentAt: time.Now(),
	})
	return nil
}
