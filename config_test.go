package tenantguard

import (
	"errors"
	"reflect"
	"testing"
)

func TestLoadConfigFrom(t *testing.T) {
	cfg, err := LoadConfigFrom(map[string]string{
		"LAWCLICK_ALLOW_UNSCOPED_TENANT_QUERIES": " 1 ",
		"NODE_ENV":                               "development",
		"LAWCLICK_PRISMA_SCHEMA_PATHS":           "db/schema.prisma,prisma/schema.prisma",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.AllowUnscoped() {
		t.Fatal("trimmed \"1\" enables the escape hatch")
	}
	if cfg.IsProduction() {
		t.Fatal("development is not production")
	}
	if cfg.MaxScanDepth != DefaultMaxScanDepth {
		t.Fatalf("expected default depth, got %d", cfg.MaxScanDepth)
	}
	want := []string{"db/schema.prisma", "prisma/schema.prisma"}
	if !reflect.DeepEqual(cfg.SchemaPaths, want) {
		t.Fatalf("expected %v, got %v", want, cfg.SchemaPaths)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestAllowUnscopedOnlyForOne(t *testing.T) {
	for _, raw := range []string{"", "0", "true", "yes", "11"} {
		if (Config{AllowUnscopedRaw: raw}).AllowUnscoped() {
			t.Fatalf("%q must not enable the escape hatch", raw)
		}
	}
}

func TestValidateRejectsUnscopedInProduction(t *testing.T) {
	for _, cfg := range []Config{
		{AllowUnscopedRaw: "1", NodeEnv: "production"},
		{AllowUnscopedRaw: "1", Environment: "production"},
	} {
		if err := cfg.Validate(); !errors.Is(err, ErrStartupConfiguration) {
			t.Fatalf("expected ErrStartupConfiguration for %+v, got %v", cfg, err)
		}
	}

	if err := (Config{NodeEnv: "production"}).Validate(); err != nil {
		t.Fatalf("production without the flag is valid: %v", err)
	}
	if err := (Config{MaxScanDepth: -1}).Validate(); !errors.Is(err, ErrStartupConfiguration) {
		t.Fatalf("expected negative depth to be rejected, got %v", err)
	}
}

func TestLoadConfigFromBadDepth(t *testing.T) {
	if _, err := LoadConfigFrom(map[string]string{"LAWCLICK_TENANT_SCAN_DEPTH": "deep"}); err == nil {
		t.Fatal("expected parse error")
	}
}
