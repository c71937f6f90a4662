package guardcli

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lawclick/tenantguard"
)

const testSchema = "model Case {\n  id String @id\n  tenantId String\n}\n\nmodel User {\n  id String @id\n  tenantId String\n}\n"

func writeSchema(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "prisma"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prisma", "schema.prisma"), []byte(testSchema), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestParseConfigRequiresCommand(t *testing.T) {
	if _, err := ParseConfig(flag.NewFlagSet("tg", flag.ContinueOnError), nil); err == nil {
		t.Fatal("expected usage error")
	}
	if _, err := ParseConfig(flag.NewFlagSet("tg", flag.ContinueOnError), []string{"nope"}); err == nil {
		t.Fatal("expected unknown command error")
	}
}

func TestParseConfigRepeatedSchema(t *testing.T) {
	fs := flag.NewFlagSet("tg", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"models", "-schema", "a.prisma", "-schema", "b.prisma", "-json"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if len(cfg.Schemas) != 2 || !cfg.JSON || cfg.Command != CommandModels {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestRunModelsListsScopedModels(t *testing.T) {
	t.Setenv("LAWCLICK_PRISMA_SCHEMA_PATHS", "")
	dir := writeSchema(t)

	var out bytes.Buffer
	if err := Run(Config{Command: CommandModels, Dir: dir}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Case") {
		t.Fatalf("expected Case in output, got %q", out.String())
	}
	if strings.Contains(out.String(), "User") {
		t.Fatalf("User is excluded, got %q", out.String())
	}
}

func TestRunModelsMissingSchema(t *testing.T) {
	t.Setenv("LAWCLICK_PRISMA_SCHEMA_PATHS", "")
	err := Run(Config{Command: CommandModels, Dir: t.TempDir()}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected missing schema error")
	}
}

func TestRunEnvRejectsProductionEscapeHatch(t *testing.T) {
	t.Setenv("NODE_ENV", "production")
	t.Setenv("LAWCLICK_ALLOW_UNSCOPED_TENANT_QUERIES", "1")

	err := Run(Config{Command: CommandEnv}, &bytes.Buffer{})
	if !errors.Is(err, tenantguard.ErrStartupConfiguration) {
		t.Fatalf("expected startup configuration error, got %v", err)
	}
}

func TestRunEnvReportsConfig(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	t.Setenv("LAWCLICK_ENV", "")
	t.Setenv("LAWCLICK_ALLOW_UNSCOPED_TENANT_QUERIES", " 1 ")

	var out bytes.Buffer
	if err := Run(Config{Command: CommandEnv}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "allow_unscoped=true") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
