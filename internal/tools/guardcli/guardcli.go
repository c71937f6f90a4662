// Package guardcli implements the tenantguard command: listing the
// tenant-scoped models and validating the guard's environment.
package guardcli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lawclick/tenantguard"
	"github.com/lawclick/tenantguard/schema"
)

// Commands accepted by Run.
const (
	CommandModels = "models"
	CommandEnv    = "env"
)

// Config holds the parsed command line.
type Config struct {
	Command string
	Dir     string
	Schemas []string
	JSON    bool
}

// Usage is printed for unknown or missing commands.
const Usage = `usage: tenantguard <command> [flags]

commands:
  models   list tenant-scoped models (-schema path, repeatable; -dir; -json)
  env      validate the guard environment configuration`

// ParseConfig parses args (without the program name) into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	if len(args) == 0 {
		return Config{}, errors.New(Usage)
	}
	cfg := Config{Command: args[0]}
	switch cfg.Command {
	case CommandModels, CommandEnv:
	default:
		return Config{}, fmt.Errorf("unknown command %q\n%s", cfg.Command, Usage)
	}

	fs.StringVar(&cfg.Dir, "dir", "", "directory schema paths are resolved against (default: working directory)")
	fs.BoolVar(&cfg.JSON, "json", false, "print JSON instead of text")
	fs.Func("schema", "schema candidate path (repeatable)", func(v string) error {
		cfg.Schemas = append(cfg.Schemas, v)
		return nil
	})
	if err := fs.Parse(args[1:]); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the command and writes its report to out.
func Run(cfg Config, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}
	switch cfg.Command {
	case CommandModels:
		return runModels(cfg, out)
	case CommandEnv:
		return runEnv(cfg, out)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}

func runModels(cfg Config, out io.Writer) error {
	envCfg, err := tenantguard.LoadConfig()
	if err != nil {
		return err
	}
	candidates := cfg.Schemas
	if len(candidates) == 0 {
		candidates = envCfg.SchemaPaths
	}
	dir := cfg.Dir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return fmt.Errorf("working directory: %w", err)
		}
	}

	text, path, err := schema.Read(dir, candidates)
	if err != nil {
		return err
	}
	models := schema.Parse(text).Models()

	if cfg.JSON {
		return writeJSON(out, map[string]any{"schema": path, "models": models})
	}
	_, err = fmt.Fprintf(out, "# %s (%d tenant-scoped models)\n%s\n", path, len(models), strings.Join(models, "\n"))
	return err
}

func runEnv(cfg Config, out io.Writer) error {
	envCfg, err := tenantguard.LoadConfig()
	if err != nil {
		return fmt.Errorf("%w: %w", tenantguard.ErrStartupConfiguration, err)
	}
	if err := envCfg.Validate(); err != nil {
		return err
	}

	if cfg.JSON {
		return writeJSON(out, map[string]any{
			"allow_unscoped": envCfg.AllowUnscoped(),
			"production":     envCfg.IsProduction(),
			"schema_paths":   envCfg.SchemaPaths,
			"max_scan_depth": envCfg.MaxScanDepth,
		})
	}
	_, err = fmt.Fprintf(out, "production=%t allow_unscoped=%t max_scan_depth=%d\n",
		envCfg.IsProduction(), envCfg.AllowUnscoped(), envCfg.MaxScanDepth)
	return err
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
