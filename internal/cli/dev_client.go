package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DevClientOptions holds flags for the create-dev-client command.
type DevClientOptions struct {
	Email        string
	Password     string
	ClientID     string
	ClientSecret string
}

// NewCreateDevClientCommand creates a command that seeds a development user
// with an OAuth client whose credentials are known in advance.
func NewCreateDevClientCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DevClientOptions{}

	cmd := &cobra.Command{
		Use:   "create-dev-client",
		Short: "Seed a development user and OAuth client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(rootOpts)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			return createDevClient(db, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "dev@recipes.local", "email of the user owning the client")
	cmd.Flags().StringVar(&opts.Password, "password", "dev-password-123", "password for the user when it is created")
	cmd.Flags().StringVar(&opts.ClientID, "client-id", "dev-client", "client id")
	cmd.Flags().StringVar(&opts.ClientSecret, "client-secret", "dev-secret-123", "client secret")

	return cmd
}

func createDevClient(db *gorm.DB, opts *DevClientOptions, out io.Writer) error {
	var existing models.OAuthClient
	err := db.Where("id = ?", opts.ClientID).First(&existing).Error
	if err == nil {
		fmt.Fprintf(out, "Development client already exists!\n")
		fmt.Fprintf(out, "Client ID: %s\n", opts.ClientID)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up client: %w", err)
	}

	user, err := devUser(db, opts, out)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.ClientSecret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash secret: %w", err)
	}

	client := models.OAuthClient{
		ID:     opts.ClientID,
		Secret: string(hash),
		Name:   "Development Client",
		Domain: "http://localhost",
		UserID: user.ID,
		Scopes: "read write",
	}
	if err := db.Create(&client).Error; err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	fmt.Fprintf(out, "Development OAuth client created!\n")
	fmt.Fprintf(out, "Client ID: %s\n", opts.ClientID)
	fmt.Fprintf(out, "Client Secret: %s\n", opts.ClientSecret)
	fmt.Fprintf(out, "User ID: %d\n", user.ID)
	fmt.Fprintln(out, "\nUse these credentials for testing:")
	fmt.Fprintf(out, "curl -X POST http://localhost:8080/oauth/token \\\n")
	fmt.Fprintf(out, "  -d 'grant_type=client_credentials' \\\n")
	fmt.Fprintf(out, "  -d 'client_id=%s' \\\n", opts.ClientID)
	fmt.Fprintf(out, "  -d 'client_secret=%s'\n", opts.ClientSecret)
	return nil
}

// devUser finds the user by email or creates it
func devUser(db *gorm.DB, opts *DevClientOptions, out io.Writer) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", opts.Email).First(&user).Error
	if err == nil {
		fmt.Fprintf(out, "Found existing user: %s (ID: %d)\n", user.Email, user.ID)
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user = models.User{Name: "Development User", Email: opts.Email, Password: opts.Password}
	if err := user.HashPassword(); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(out, "Created new user: %s (ID: %d)\n", user.Email, user.ID)
	return &user, nil
}
