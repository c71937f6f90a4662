package extension

// Audit modes for Config.Audit.
const (
	AuditOff        = "off"
	AuditRejections = "rejections"
	AuditAll        = "all"
)

// Config holds the tenant guard extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.tenantguard" or "tenantguard" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Driver selects the grove-backed store built when no store.Store is
	// provided: "sqlite", "postgres" or "mongo". The grove.DB comes from
	// WithGroveDB or, failing that, the DI container.
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// Audit controls the audit recorder: "off", "rejections" or "all".
	Audit string `json:"audit" mapstructure:"audit" yaml:"audit"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Audit: AuditRejections,
	}
}
