package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"famstore/models"
	"famstore/repositories"
	"famstore/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

type AuthUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	RootFolderID string `json:"root_folder_id"`
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginOutput struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

type ProfileOutput struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	RootFolderID string    `json:"root_folder_id"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (AuthUser, error)
	Login(ctx context.Context, in LoginInput) (LoginOutput, error)
	GetProfile(ctx context.Context, userID string) (ProfileOutput, error)
}

type authService struct {
	txManager TxManager
	users     repositories.UserRepository
	items     repositories.ItemRepository
}

func NewAuthService(txManager TxManager, users repositories.UserRepository, items repositories.ItemRepository) AuthService {
	return &authService{txManager: txManager, users: users, items: items}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (AuthUser, error) {
	count, err := s.users.CountByEmail(ctx, in.Email)
	if err != nil {
		return AuthUser{}, newAppError(http.StatusInternalServerError, "failed to check email", err)
	}
	if count > 0 {
		return AuthUser{}, newAppError(http.StatusConflict, "email is already registered", nil)
	}

	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		return AuthUser{}, newAppError(http.StatusInternalServerError, "failed to hash password", err)
	}

	userID, err := uuid.NewV7()
	if err != nil {
		return AuthUser{}, newAppError(http.StatusInternalServerError, "failed to generate id", err)
	}
	rootID, err := uuid.NewV7()
	if err != nil {
		return AuthUser{}, newAppError(http.StatusInternalServerError, "failed to generate id", err)
	}

	user := models.User{
		ID:           userID.String(),
		Email:        in.Email,
		Username:     in.Username,
		Password:     hashedPassword,
		RootFolderID: rootID.String(),
		IsActive:     true,
	}

	// The root folder pointer is assigned before either row exists;
	// both rows commit or neither does.
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.users.Create(ctx, tx, &user); err != nil {
			return err
		}
		root := models.Item{
			ID:      rootID.String(),
			OwnerID: user.ID,
			Name:    "Home",
			Kind:    models.ItemKindFolder,
		}
		return s.items.Create(ctx, tx, &root)
	})
	if err != nil {
		return AuthUser{}, newAppError(http.StatusInternalServerError, "failed to create user", err)
	}

	return AuthUser{ID: user.ID, Email: user.Email, Username: user.Username, RootFolderID: user.RootFolderID}, nil
}

func (s *authService) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	user, err := s.users.GetByEmail(ctx, nil, in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LoginOutput{}, newAppError(http.StatusUnauthorized, "invalid email or password", nil)
		}
		return LoginOutput{}, newAppError(http.StatusInternalServerError, "failed to query user", err)
	}

	if !utils.CheckPassword(in.Password, user.Password) {
		return LoginOutput{}, newAppError(http.StatusUnauthorized, "invalid email or password", nil)
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		return LoginOutput{}, newAppError(http.StatusInternalServerError, "failed to generate token", err)
	}

	return LoginOutput{
		Token: token,
		User:  AuthUser{ID: user.ID, Email: user.Email, Username: user.Username, RootFolderID: user.RootFolderID},
	}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID string) (ProfileOutput, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProfileOutput{}, newAppError(http.StatusNotFound, "user not found", nil)
		}
		return ProfileOutput{}, newAppError(http.StatusInternalServerError, "failed to query user", err)
	}

	return ProfileOutput{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		RootFolderID: user.RootFolderID,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt,
	}, nil
}
