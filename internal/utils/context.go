package utils

import "context"

// SetMemberContext sets member info into context (called by middleware)
func SetMemberContext(ctx context.Context, memberID int64, authID, role string) context.Context {
	ctx = context.WithValue(ctx, MemberIDKey, memberID)
	ctx = context.WithValue(ctx, AuthIDKey, authID)
	ctx = context.WithValue(ctx, RoleKey, role)
	return ctx
}

func GetMemberIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(MemberIDKey).(int64)
	return id, ok
}

// GetAuthIDFromContext reports the signed-in member's auth id. Anonymous
// requests return "", false.
func GetAuthIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(AuthIDKey).(string)
	return id, ok && id != ""
}

func GetRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(RoleKey).(string)
	return role
}

func SetCartIDContext(ctx context.Context, cartID string) context.Context {
	return context.WithValue(ctx, CartIDKey, cartID)
}

func GetCartIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(CartIDKey).(string)
	return id
}
