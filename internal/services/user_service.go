package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"gorm.io/gorm"
)

// MinPasswordLength applies to registration and credential changes
const MinPasswordLength = 8

// ProfileUpdate changes the fields that are set
type ProfileUpdate struct {
	Name  *string
	Email *string
}

type UserService interface {
	// CreateUser registers a new account
	CreateUser(ctx context.Context, name, email, password string) (*models.User, error)
	// Authenticate checks credentials. A wrong password increments the account's failed attempt counter.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	// SearchUsersByName returns users whose name matches exactly
	SearchUsersByName(ctx context.Context, name string) ([]models.User, error)
	UpdateProfile(ctx context.Context, actor auth.Identity, update ProfileUpdate) (*models.User, error)
	UpdateCredentials(ctx context.Context, actor auth.Identity, email, password string) (*models.User, error)
	// ToggleDarkMode flips the preference and returns the new value
	ToggleDarkMode(ctx context.Context, actor auth.Identity) (bool, error)
	// DeleteUser removes the account and everything it owns
	DeleteUser(ctx context.Context, actor auth.Identity) error
}

type userService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", validationError("invalid email address")
	}
	return email, nil
}

func (s *userService) CreateUser(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("name is required")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, validationError("password must be at least %d characters", MinPasswordLength)
	}

	if err := s.emailAvailable(ctx, email, 0); err != nil {
		return nil, err
	}

	user := &models.User{Name: name, Email: email, Password: password}
	if err := user.HashPassword(); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.ErrConflict
		}
		return nil, storageError("creating user", err)
	}
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, validationError("email and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotAuthenticated
	}
	if err != nil {
		return nil, storageError("loading user", err)
	}

	if !user.CheckPassword(password) {
		err := s.db.WithContext(ctx).Model(&user).
			UpdateColumn("failed_login_attempts", gorm.Expr("failed_login_attempts + 1")).Error
		if err != nil {
			return nil, storageError("recording failed login", err)
		}
		return nil, models.ErrNotAuthenticated
	}

	if user.FailedLoginAttempts != 0 {
		if err := s.db.WithContext(ctx).Model(&user).UpdateColumn("failed_login_attempts", 0).Error; err != nil {
			return nil, storageError("resetting failed logins", err)
		}
	}
	return &user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupError("user", err)
	}
	return &user, nil
}

func (s *userService) SearchUsersByName(ctx context.Context, name string) ([]models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("name is required")
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("name = ?", name).Order("id").Find(&users).Error; err != nil {
		return nil, storageError("searching users", err)
	}
	return users, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor auth.Identity, update ProfileUpdate) (*models.User, error) {
	if actor.IsAnonymous() {
		return nil, models.ErrNotAuthenticated
	}

	changes := map[string]interface{}{}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, validationError("name cannot be empty")
		}
		changes["name"] = name
	}
	if update.Email != nil {
		email, err := normalizeEmail(*update.Email)
		if err != nil {
			return nil, err
		}
		if err := s.emailAvailable(ctx, email, actor.UserID); err != nil {
			return nil, err
		}
		changes["email"] = email
	}
	if len(changes) == 0 {
		return nil, validationError("no fields to update")
	}

	return s.apply(ctx, actor.UserID, changes)
}

func (s *userService) UpdateCredentials(ctx context.Context, actor auth.Identity, email, password string) (*models.User, error) {
	if actor.IsAnonymous() {
		return nil, models.ErrNotAuthenticated
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, validationError("password must be at least %d characters", MinPasswordLength)
	}
	if err := s.emailAvailable(ctx, email, actor.UserID); err != nil {
		return nil, err
	}

	user := models.User{Password: password}
	if err := user.HashPassword(); err != nil {
		return nil, err
	}

	return s.apply(ctx, actor.UserID, map[string]interface{}{
		"email":                 email,
		"password_hash":         user.PasswordHash,
		"failed_login_attempts": 0,
	})
}

func (s *userService) ToggleDarkMode(ctx context.Context, actor auth.Identity) (bool, error) {
	if actor.IsAnonymous() {
		return false, models.ErrNotAuthenticated
	}

	user, err := s.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return false, err
	}

	err = s.db.WithContext(ctx).Model(user).Update("dark_mode", gorm.Expr("NOT dark_mode")).Error
	if err != nil {
		return false, storageError("toggling dark mode", err)
	}

	user, err = s.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return false, err
	}
	return user.DarkMode, nil
}

func (s *userService) DeleteUser(ctx context.Context, actor auth.Identity) error {
	if actor.IsAnonymous() {
		return models.ErrNotAuthenticated
	}
	if _, err := s.GetUserByID(ctx, actor.UserID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipeIDs []uint
		if err := tx.Model(&models.Recipe{}).Where("user_id = ?", actor.UserID).Pluck("id", &recipeIDs).Error; err != nil {
			return err
		}
		if err := deleteRecipes(tx, recipeIDs); err != nil {
			return err
		}

		var clientIDs []string
		if err := tx.Model(&models.OAuthClient{}).Where("user_id = ?", actor.UserID).Pluck("id", &clientIDs).Error; err != nil {
			return err
		}
		if len(clientIDs) > 0 {
			if err := tx.Where("client_id IN ?", clientIDs).Delete(&models.OAuthToken{}).Error; err != nil {
				return err
			}
		}

		owned := []interface{}{
			&models.Comment{}, &models.Favorite{}, &models.Achievement{},
			&models.Session{}, &models.OAuthClient{},
		}
		for _, model := range owned {
			if err := tx.Where("user_id = ?", actor.UserID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.User{}, actor.UserID).Error
	})
	if err != nil {
		return storageError("deleting user", err)
	}
	return nil
}

// emailAvailable fails with ErrConflict when another account uses email
func (s *userService) emailAvailable(ctx context.Context, email string, self uint) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND id <> ?", email, self).
		Count(&count).Error
	if err != nil {
		return storageError("checking email", err)
	}
	if count > 0 {
		return models.ErrConflict
	}
	return nil
}

func (s *userService) apply(ctx context.Context, userID uint, changes map[string]interface{}) (*models.User, error) {
	err := s.db.WithContext(ctx).Model(&models.User{ID: userID}).Updates(changes).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.ErrConflict
		}
		return nil, storageError("updating user", err)
	}
	return s.GetUserByID(ctx, userID)
}
