package auth

// Role represents a protocol role carried in a token.
type Role string

const (
	// RoleMember is any authenticated holder or borrower.
	RoleMember Role = "member"
	// RoleIssuer may create and activate series.
	RoleIssuer Role = "issuer"
	// RoleTreasury may claim defaulted repo collateral.
	RoleTreasury Role = "treasury"
	// RoleAdmin administers the bill ledger operator set.
	RoleAdmin Role = "admin"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleMember, RoleIssuer, RoleTreasury, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleSatisfies reports whether role meets the required role. Admin
// satisfies everything; issuer and treasury are distinct privileges, not
// ranks; every valid role satisfies member.
func RoleSatisfies(role, required Role) bool {
	if _, ok := NormalizeRole(string(role)); !ok {
		return false
	}
	switch required {
	case RoleMember:
		return true
	case RoleAdmin:
		return role == RoleAdmin
	default:
		return role == required || role == RoleAdmin
	}
}
