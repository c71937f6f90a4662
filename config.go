package tenantguard

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// DefaultMaxScanDepth bounds the tenant inference walk.
const DefaultMaxScanDepth = 32

// Config holds configuration for the Guard. It is read from the
// environment once at startup.
type Config struct {
	// AllowUnscopedRaw enables the non-production escape hatch when it is
	// exactly "1" after trimming.
	AllowUnscopedRaw string `env:"LAWCLICK_ALLOW_UNSCOPED_TENANT_QUERIES" json:"allow_unscoped,omitempty"`

	// NodeEnv and Environment identify the runtime. Either one set to
	// "production" marks a production runtime.
	NodeEnv     string `env:"NODE_ENV" json:"node_env,omitempty"`
	Environment string `env:"LAWCLICK_ENV" json:"environment,omitempty"`

	// SchemaPaths overrides the schema candidate list.
	SchemaPaths []string `env:"LAWCLICK_PRISMA_SCHEMA_PATHS" envSeparator:"," json:"schema_paths,omitempty"`

	// MaxScanDepth is the maximum nesting the tenant inference walk will
	// follow. Defaults to 32.
	MaxScanDepth int `env:"LAWCLICK_TENANT_SCAN_DEPTH" envDefault:"32" json:"max_scan_depth,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{MaxScanDepth: DefaultMaxScanDepth}
}

// LoadConfig reads the configuration from the process environment.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("tenantguard: parse env: %w", err)
	}
	return cfg, nil
}

// LoadConfigFrom reads the configuration from the given variables instead
// of the process environment.
func LoadConfigFrom(environ map[string]string) (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("tenantguard: parse env: %w", err)
	}
	return cfg, nil
}

// AllowUnscoped reports whether the escape hatch is requested.
func (c Config) AllowUnscoped() bool { return strings.TrimSpace(c.AllowUnscopedRaw) == "1" }

// IsProduction reports whether either environment variable says production.
func (c Config) IsProduction() bool {
	return strings.TrimSpace(c.NodeEnv) == "production" || strings.TrimSpace(c.Environment) == "production"
}

// Validate rejects configurations the guard must not start with.
func (c Config) Validate() error {
	if c.AllowUnscoped() && c.IsProduction() {
		return fmt.Errorf("%w: LAWCLICK_ALLOW_UNSCOPED_TENANT_QUERIES is forbidden in production", ErrStartupConfiguration)
	}
	if c.MaxScanDepth < 0 {
		return fmt.Errorf("%w: LAWCLICK_TENANT_SCAN_DEPTH must not be negative", ErrStartupConfiguration)
	}
	return nil
}

func (c Config) scanDepth() int {
	if c.MaxScanDepth <= 0 {
		return DefaultMaxScanDepth
	}
	return c.MaxScanDepth
}
