package auth

import "context"

type contextKey string

const (
	contextKeyParty contextKey = "auth.party"
	contextKeyRole  contextKey = "auth.role"
)

// WithIdentity stores the verified caller identity in context.
func WithIdentity(ctx context.Context, party Party, role Role) context.Context {
	ctx = context.WithValue(ctx, contextKeyParty, party)
	ctx = context.WithValue(ctx, contextKeyRole, role)
	return ctx
}

// PartyFromContext extracts the caller party from context.
func PartyFromContext(ctx context.Context) Party {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyParty)
	if party, ok := value.(Party); ok {
		return party
	}
	return ""
}

// RoleFromContext extracts the caller role from context.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyRole)
	if role, ok := value.(Role); ok {
		return role
	}
	if role, ok := value.(string); ok {
		if normalized, valid := NormalizeRole(role); valid {
			return normalized
		}
	}
	return ""
}
