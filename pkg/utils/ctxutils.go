package utils

import (
	"context"

	"studio-system/pkg/contextkeys"
	apperrors "studio-system/pkg/errors"
)

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok || userID == 0 {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return userID, nil
}

// GetStudentIDFromCtx returns the student linked to the token, if any.
func GetStudentIDFromCtx(ctx context.Context) (uint64, bool) {
	studentID, ok := ctx.Value(contextkeys.StudentIDKey).(uint64)
	return studentID, ok && studentID != 0
}

func GetPermissionsMapFromCtx(ctx context.Context) (map[string]bool, error) {
	permissions, ok := ctx.Value(contextkeys.UserPermissionsMapKey).(map[string]bool)
	if !ok || permissions == nil {
		return nil, apperrors.ErrForbidden
	}
	return permissions, nil
}

// WithActor stores the actor identity in ctx the same way the auth
// middleware does. Used by background jobs and tests.
func WithActor(ctx context.Context, userID, studentID uint64, permissions map[string]bool) context.Context {
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, userID)
	if studentID != 0 {
		ctx = context.WithValue(ctx, contextkeys.StudentIDKey, studentID)
	}
	return context.WithValue(ctx, contextkeys.UserPermissionsMapKey, permissions)
}
