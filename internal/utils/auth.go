package utils

type contextKey string

const (
	MemberIDKey contextKey = "member_id"
	AuthIDKey   contextKey = "auth_id"
	RoleKey     contextKey = "role"
	CartIDKey   contextKey = "cart_id"
)

const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)
