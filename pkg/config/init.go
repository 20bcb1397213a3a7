package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// sampleConfigTemplate is the commented configuration written by
// 'portal init'. %s is replaced with a freshly generated JWT secret.
const sampleConfigTemplate = `# Portal Configuration File
#
# All options can be overridden with PORTAL_* environment variables,
# e.g. PORTAL_LOGGING_LEVEL=DEBUG or PORTAL_API_PORT=9090.

logging:
  # Minimum log level: DEBUG, INFO, WARN, ERROR
  level: INFO
  # Log format: text or json
  format: text
  # Log destination: stdout, stderr, or a file path
  output: stdout

# Maximum time to wait for graceful shutdown
shutdown_timeout: 30s

storage:
  # Root directory of the physical folder tree
  root: /var/lib/portal/data
  # Per-operation filesystem timeout
  io_timeout: 30s

database:
  # Catalog database backend: sqlite or postgres
  type: sqlite
  sqlite:
    path: /var/lib/portal/catalog.db
  # postgres:
  #   host: localhost
  #   port: 5432
  #   database: portal
  #   user: portal
  #   password: secret
  #   ssl_mode: disable

api:
  port: 8080
  read_timeout: 10s
  write_timeout: 120s
  idle_timeout: 60s
  # Expose Prometheus metrics at /metrics
  metrics: false
  jwt:
    # HMAC signing key, at least 32 characters.
    # Prefer setting PORTAL_API_SECRET instead of keeping it here.
    secret: %s
    access_token_duration: 15m
    refresh_token_duration: 168h

admin:
  # Initial admin account created on first start
  username: admin
`

// InitConfig writes a sample configuration file at the default
// location. Returns the path written.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a sample configuration file at the given
// path. Refuses to overwrite an existing file unless force is set.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	secret, err := generateSecret()
	if err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}

	content := fmt.Sprintf(sampleConfigTemplate, secret)

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateSecret returns a 64-character hex string (32 bytes of entropy).
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
