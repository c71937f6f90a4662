package schema

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const testSchema = `
datasource db {
  provider = "postgresql"
}

model Tenant {
  id   String @id
  name String
}

model Case {
  id       String @id
  tenantId String
  title    String
  tenant   Tenant @relation(fields: [tenantId], references: [id])

  @@unique([tenantId, id])
}

model User {
  id       String @id
  tenantId String
  email    String
}

model TenantMembership {
  id       String @id
  tenantId String
  userId   String
}

model Document {
  id     String @id
  caseId String
  // tenantId is reached through Case only
  case   Case   @relation(fields: [caseId], references: [id])
}

model Task {
	id        String @id
	tenantId  String?
}
`

func TestScopedModelsAppliesExclusions(t *testing.T) {
	r := Parse(testSchema)
	want := []string{"Case", "Task"}
	if got := r.Models(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if r.Has("User") || r.Has("TenantMembership") {
		t.Fatal("excluded models must not be scoped")
	}
}

func TestRelationOnlyModelIsNotDetected(t *testing.T) {
	r := Parse(testSchema)
	if r.Has("Document") {
		t.Fatal("detection is syntactic: Document has no tenantId field")
	}
	if r.Has("Tenant") {
		t.Fatal("Tenant has no tenantId field")
	}
}

func TestScenarioCaseAndUser(t *testing.T) {
	text := "model Case {\n  tenantId String\n  title String\n}\n\nmodel User {\n  tenantId String\n  email String\n}\n"
	r := Parse(text)
	if got := r.Models(); !reflect.DeepEqual(got, []string{"Case"}) {
		t.Fatalf("expected [Case], got %v", got)
	}
}

func TestScopedModelsHandlesCRLF(t *testing.T) {
	text := "model Invoice {\r\n  tenantId String\r\n}\r\n"
	if got := ScopedModels(text); !reflect.DeepEqual(got, []string{"Invoice"}) {
		t.Fatalf("expected [Invoice], got %v", got)
	}
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	if r.Has("Case") || r.Len() != 0 || r.Models() != nil {
		t.Fatal("nil registry scopes nothing")
	}
}

func TestLoadFirstExistingCandidate(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "lawclick-next", "prisma")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "schema.prisma"), []byte(testSchema), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := Load(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Has("Case") {
		t.Fatal("expected Case to be scoped")
	}
}

func TestLoadMissingSchemaNamesPaths(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir, nil)
	if !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("expected ErrSchemaNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "prisma/schema.prisma") || !strings.Contains(err.Error(), " | ") {
		t.Fatalf("error should list attempted paths: %v", err)
	}
}
