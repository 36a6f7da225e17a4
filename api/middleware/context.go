package middleware

import "context"

type identityKey struct{}

// identity is the caller attached to the request by Auth.
type identity struct {
	userID    string
	role      string
	sessionID string
}

func identityFrom(ctx context.Context) identity {
	if ctx == nil {
		return identity{}
	}
	id, _ := ctx.Value(identityKey{}).(identity)
	return id
}

func withIdentity(ctx context.Context, id identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey{}, id)
}

func UserIDFromContext(ctx context.Context) string { return identityFrom(ctx).userID }

func RoleFromContext(ctx context.Context) string { return identityFrom(ctx).role }

// SessionIDFromContext returns the access token jti, which keys the refresh session.
func SessionIDFromContext(ctx context.Context) string { return identityFrom(ctx).sessionID }

// WithUserID sets the caller id, keeping any role already present.
func WithUserID(ctx context.Context, userID string) context.Context {
	id := identityFrom(ctx)
	id.userID = userID
	return withIdentity(ctx, id)
}

func WithRole(ctx context.Context, role string) context.Context {
	id := identityFrom(ctx)
	id.role = role
	return withIdentity(ctx, id)
}
