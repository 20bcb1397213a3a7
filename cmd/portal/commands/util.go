package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/otymus27/portal-hrg/internal/logger"
	"github.com/otymus27/portal-hrg/pkg/config"
	"github.com/otymus27/portal-hrg/pkg/portal/store"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	if err := logger.Init(cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// openCatalog loads configuration and opens the catalog store. Used by
// the user management commands, which operate on the database directly.
func openCatalog() (*config.Config, *store.GORMStore, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, nil, err
	}

	catalog, err := store.New(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	return cfg, catalog, nil
}

// ensureAdmin creates the bootstrap admin account when missing. The
// configured password is used if set, otherwise a random one is
// generated and printed once.
func ensureAdmin(ctx context.Context, catalog *store.GORMStore, cfg *config.Config) error {
	password := cfg.Admin.Password
	generated := false
	if password == "" {
		var err error
		password, err = randomPassword()
		if err != nil {
			return fmt.Errorf("failed to generate admin password: %w", err)
		}
		generated = true
	}

	created, err := catalog.EnsureAdminUser(ctx, cfg.Admin.Username, password)
	if err != nil {
		return fmt.Errorf("failed to ensure admin user: %w", err)
	}
	if created && generated {
		logger.Info("Admin user created", "username", cfg.Admin.Username)
		fmt.Printf("\n*** IMPORTANT: Admin user %q created with password: %s ***\n", cfg.Admin.Username, password)
		fmt.Println("Please save this password. It will not be shown again.")
		fmt.Println()
	}
	return nil
}

// randomPassword returns a 32-character hex password.
func randomPassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// GetDefaultStateDir returns the default state directory path.
func GetDefaultStateDir() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "/tmp"
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}
	return filepath.Join(stateDir, "portal")
}
