package authz

import (
	"strings"

	"studio-system/internal/entities"
)

// StudentRef targets data that belongs to a student but has no row of its
// own, such as the joker summary or the travel-fee balance.
type StudentRef struct {
	StudentID uint64
}

type Context struct {
	ActorID           uint64
	ActorStudentID    uint64
	Permissions       map[string]bool
	Target            interface{}
	CurrentPermission string
}

func (c *Context) HasPermission(permission string) bool {
	if c.Permissions == nil {
		return false
	}
	return c.Permissions[permission]
}

// IsStaff reports whether the actor may act on any student.
func (c *Context) IsStaff() bool {
	return c.HasPermission(Superuser) || c.HasPermission(ScopeAll)
}

func getResource(permission string) string {
	parts := strings.Split(permission, ":")
	return parts[0]
}

func getAction(permission string) string {
	parts := strings.Split(permission, ":")
	if len(parts) > 1 {
		return parts[1]
	}
	return ""
}

// catalog resources are shared by every student; reading them only needs the
// base permission, changing them needs scope:all.
var catalogResources = map[string]bool{
	"class_schedules": true,
	"reports":         true,
}

func targetStudentID(target interface{}) (uint64, bool) {
	switch t := target.(type) {
	case *entities.StudentClassRegistration:
		return t.StudentID, true
	case *entities.ScheduleChange:
		return t.StudentID, true
	case *entities.TemporaryLeave:
		return t.StudentID, true
	case *entities.TravelFeeMovement:
		return t.StudentID, true
	case StudentRef:
		return t.StudentID, true
	}
	return 0, false
}

func CanDo(permission string, ctx Context) bool {
	ctx.CurrentPermission = permission

	if ctx.HasPermission(Superuser) {
		return true
	}
	if !ctx.HasPermission(permission) {
		return false
	}

	if catalogResources[getResource(permission)] {
		return getAction(permission) == "view" || ctx.HasPermission(ScopeAll)
	}

	// reviewing requests is a staff action whatever the target
	if permission == ScheduleChangesReview {
		return ctx.HasPermission(ScopeAll)
	}

	if ctx.HasPermission(ScopeAll) {
		return true
	}

	if !ctx.HasPermission(ScopeOwn) || ctx.ActorStudentID == 0 {
		return false
	}

	// no target: listing or creating, the caller narrows to the own student
	if ctx.Target == nil {
		return true
	}

	studentID, ok := targetStudentID(ctx.Target)
	return ok && studentID == ctx.ActorStudentID
}
