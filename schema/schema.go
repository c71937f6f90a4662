// Package schema determines, once per process, which models are tenant-scoped.
//
// Detection is syntactic: a model is scoped when its block declares a scalar
// field literally named tenantId. Models scoped only through a relation to a
// tenant-owned parent are not detected and therefore not guarded.
package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrSchemaNotFound is returned when no candidate schema path exists.
var ErrSchemaNotFound = errors.New("schema: schema.prisma not found")

// DefaultCandidates are tried, in order, relative to the working directory.
var DefaultCandidates = []string{
	filepath.Join("prisma", "schema.prisma"),
	filepath.Join("lawclick-next", "prisma", "schema.prisma"),
}

// DefaultExclusions are models that span tenants by nature (identity,
// membership, invites) and must never be auto-pinned.
var DefaultExclusions = []string{"User", "TenantMembership", "TenantInvite"}

var (
	modelBlockRe  = regexp.MustCompile(`model\s+(\w+)\s*\{([\s\S]*?)\n\}`)
	tenantFieldRe = regexp.MustCompile(`(?m)^[ \t]*tenantId\s+\w+`)
)

// Registry is the immutable set of tenant-scoped model names.
type Registry struct {
	models map[string]struct{}
}

// NewRegistry builds a registry from models minus exclusions.
func NewRegistry(models []string, exclusions ...string) *Registry {
	skip := make(map[string]struct{}, len(exclusions))
	for _, name := range exclusions {
		skip[name] = struct{}{}
	}
	r := &Registry{models: make(map[string]struct{}, len(models))}
	for _, name := range models {
		if _, ok := skip[name]; ok {
			continue
		}
		r.models[name] = struct{}{}
	}
	return r
}

// Parse builds a registry from schema text using DefaultExclusions.
func Parse(text string) *Registry {
	return NewRegistry(ScopedModels(text), DefaultExclusions...)
}

// Has reports whether model is tenant-scoped. A nil registry scopes nothing.
func (r *Registry) Has(model string) bool {
	if r == nil {
		return false
	}
	_, ok := r.models[model]
	return ok
}

// Models returns the scoped model names, sorted.
func (r *Registry) Models() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.models))
	for name := range r.models {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of scoped models.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.models)
}

// ScopedModels lists, in order of appearance, every model whose body
// declares a tenantId field. Exclusions are not applied.
func ScopedModels(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, m := range modelBlockRe.FindAllStringSubmatch(text, -1) {
		if tenantFieldRe.MatchString(m[2]) {
			out = append(out, m[1])
		}
	}
	return out
}

// Read returns the contents of the first existing candidate. Relative
// candidates are resolved against cwd; an empty list means DefaultCandidates.
func Read(cwd string, candidates []string) (text, path string, err error) {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	tried := make([]string, 0, len(candidates))
	for _, c := range candidates {
		p := c
		if !filepath.IsAbs(p) {
			p = filepath.Join(cwd, p)
		}
		tried = append(tried, filepath.ToSlash(p))

		info, statErr := os.Stat(p)
		if statErr != nil || info.IsDir() {
			continue
		}
		b, readErr := os.ReadFile(p)
		if readErr != nil {
			return "", "", fmt.Errorf("schema: read %s: %w", p, readErr)
		}
		return string(b), p, nil
	}
	return "", "", fmt.Errorf("%w (tried: %s)", ErrSchemaNotFound, strings.Join(tried, " | "))
}

// Load reads the schema from the first existing candidate and builds the
// registry with DefaultExclusions.
func Load(cwd string, candidates []string) (*Registry, error) {
	text, _, err := Read(cwd, candidates)
	if err != nil {
		return nil, err
	}
	return Parse(text), nil
}
