package auth

import (
	"net/http"
	"strings"
)

// Policy determines required roles by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves the required role for the request.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path
	method := r.Method

	switch {
	case path == "/api/v1/series":
		if method == http.MethodPost {
			return RoleIssuer, true
		}
		return RoleMember, true
	case strings.HasPrefix(path, "/api/v1/series/") && strings.HasSuffix(path, "/activate"):
		return RoleIssuer, true
	case strings.HasPrefix(path, "/api/v1/series/"):
		return RoleMember, true
	case path == "/api/v1/ledger/operators" || strings.HasPrefix(path, "/api/v1/ledger/operators/"):
		return RoleAdmin, true
	case strings.HasPrefix(path, "/api/v1/ledger/"):
		return RoleMember, true
	case strings.HasPrefix(path, "/api/v1/repos/") && strings.HasSuffix(path, "/default"):
		return RoleTreasury, true
	case path == "/api/v1/repos" || strings.HasPrefix(path, "/api/v1/repos/"):
		return RoleMember, true
	case strings.HasPrefix(path, "/api/v1/accounting/report."):
		return RoleAdmin, true
	case path == "/api/v1/accounting":
		return RoleMember, true
	}
	return "", false
}
