package contextkeys

type contextKey string

const (
	UserIDKey             contextKey = "UserID"
	StudentIDKey          contextKey = "StudentID"
	UserRoleKey           contextKey = "UserRole"
	UserPermissionsMapKey contextKey = "userPermissionsMap"
)
