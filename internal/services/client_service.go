package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ClientService manages the OAuth clients a user owns. Tokens issued to a
// client act as its owner.
type ClientService interface {
	// CreateClient registers a client and returns it with its plain secret, which is not stored
	CreateClient(ctx context.Context, actor auth.Identity, name, domain, scopes string) (*models.OAuthClient, string, error)
	GetClientsByUserID(ctx context.Context, userID uint) ([]models.OAuthClient, error)
	GetClientByID(ctx context.Context, id string) (*models.OAuthClient, error)
	DeleteClient(ctx context.Context, actor auth.Identity, clientID string) error
}

type clientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) ClientService {
	return &clientService{db: db}
}

func generateSecret() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *clientService) CreateClient(ctx context.Context, actor auth.Identity, name, domain, scopes string) (*models.OAuthClient, string, error) {
	if actor.IsAnonymous() {
		return nil, "", models.ErrNotAuthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", validationError("name is required")
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	client := &models.OAuthClient{
		ID:     uuid.NewString(),
		Secret: string(hash),
		Name:   name,
		Domain: strings.TrimSpace(domain),
		Scopes: strings.TrimSpace(scopes),
		UserID: actor.UserID,
	}
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return nil, "", storageError("creating client", err)
	}
	return client, secret, nil
}

func (s *clientService) GetClientsByUserID(ctx context.Context, userID uint) ([]models.OAuthClient, error) {
	var clients []models.OAuthClient
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&clients).Error; err != nil {
		return nil, storageError("listing clients", err)
	}
	return clients, nil
}

func (s *clientService) GetClientByID(ctx context.Context, id string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, lookupError("client", err)
	}
	return &client, nil
}

func (s *clientService) DeleteClient(ctx context.Context, actor auth.Identity, clientID string) error {
	if actor.IsAnonymous() {
		return models.ErrNotAuthenticated
	}

	client, err := s.GetClientByID(ctx, clientID)
	if err != nil {
		return err
	}
	if err := auth.Authorize(actor, client.UserID); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", client.ID).Delete(&models.OAuthToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(client).Error
	})
	if err != nil {
		return storageError("deleting client", err)
	}
	return nil
}
