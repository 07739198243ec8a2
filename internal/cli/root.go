// Package cli implements recipectl, the maintenance tool for the recipe API database.
package cli

import (
	"github.com/franciscosanchezn/gin-recipe-api/internal/config"
	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Driver string
	DBPath string
}

// NewRootCommand creates the root command for recipectl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "recipectl",
		Short:         "Recipe API maintenance tool",
		Long:          "Migrates the recipe API schema and seeds development OAuth clients. Connection settings come from the same environment as the server.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver, overrides DB_DRIVER (sqlite|postgres)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "sqlite database path, overrides DB_PATH")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCreateDevClientCommand(opts))

	return cmd
}

// openDatabase connects with the server configuration and the flag overrides.
// Connecting migrates the schema.
func openDatabase(opts *RootOptions) (*gorm.DB, error) {
	conf, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if opts.Driver != "" {
		conf.DBDriver = opts.Driver
	}
	if opts.DBPath != "" {
		conf.DBPath = opts.DBPath
	}

	return database.InitDatabase(database.DatabaseConfig{
		Driver:   conf.DBDriver,
		Host:     conf.DBHost,
		Port:     conf.DBPort,
		User:     conf.DBUser,
		Password: conf.DBPassword,
		Name:     conf.DBName,
		SSLMode:  conf.DBSSLMode,
		Path:     conf.DBPath,
	})
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
