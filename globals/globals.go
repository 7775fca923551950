package globals

// Context keys
type ContextKey string

const (
	RoleKey      ContextKey = "role"
	UserIDKey    ContextKey = "userId"
	RequestIDKey ContextKey = "requestId"
)

// Roles allowed to manage content.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)
