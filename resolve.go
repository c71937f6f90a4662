package tenantguard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lawclick/tenantguard/operation"
)

// inferenceKeys are the argument trees searched for a tenant id, in order.
var inferenceKeys = []string{
	operation.KeyWhere, operation.KeyData, operation.KeyCreate, operation.KeyUpdate,
}

// normalizeTenant returns v trimmed when it is a string, or "".
func normalizeTenant(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// tenantScan collects distinct tenant ids from an argument tree. It stops
// as soon as a second distinct id is seen.
type tenantScan struct {
	maxDepth int
	found    []string
}

func (s *tenantScan) ambiguous() bool { return len(s.found) > 1 }

func (s *tenantScan) add(v any) {
	t := normalizeTenant(v)
	if t == "" {
		return
	}
	for _, f := range s.found {
		if f == t {
			return
		}
	}
	s.found = append(s.found, t)
}

func (s *tenantScan) walk(v any, depth int) error {
	if s.ambiguous() {
		return nil
	}
	if m := operation.AsMap(v); m != nil {
		if depth > s.maxDepth {
			return ErrScanDepthExceeded
		}
		s.add(m[operation.KeyTenantID])
		for _, k := range sortedKeys(m) {
			if err := s.walk(m[k], depth+1); err != nil {
				return err
			}
			if s.ambiguous() {
				return nil
			}
		}
		return nil
	}
	if l := operation.AsList(v); l != nil {
		if depth > s.maxDepth {
			return ErrScanDepthExceeded
		}
		for _, item := range l {
			if err := s.walk(item, depth+1); err != nil {
				return err
			}
			if s.ambiguous() {
				return nil
			}
		}
	}
	return nil
}

// inferTenant searches where, data, create and update for tenantId values.
// It returns "" when none is present.
func inferTenant(args operation.Args, maxDepth int) (string, error) {
	scan := &tenantScan{maxDepth: maxDepth}
	for _, key := range inferenceKeys {
		if err := scan.walk(args[key], 0); err != nil {
			return "", fmt.Errorf("%w: limit %d", err, maxDepth)
		}
		if scan.ambiguous() {
			return "", fmt.Errorf("%w: found %q and %q", ErrAmbiguousTenant, scan.found[0], scan.found[1])
		}
	}
	if len(scan.found) == 0 {
		return "", nil
	}
	return scan.found[0], nil
}

// uniqueWhereTenants returns the tenant ids a unique where clause declares:
// its own string tenantId, or else the tenantId of every nested composite
// selector one level down.
func uniqueWhereTenants(where any) []string {
	m := operation.AsMap(where)
	if m == nil {
		return nil
	}
	if direct, ok := m[operation.KeyTenantID].(string); ok {
		if t := strings.TrimSpace(direct); t != "" {
			return []string{t}
		}
		return nil
	}
	var out []string
	for _, k := range sortedKeys(m) {
		nested := operation.AsMap(m[k])
		if nested == nil {
			continue
		}
		if t := normalizeTenant(nested[operation.KeyTenantID]); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
