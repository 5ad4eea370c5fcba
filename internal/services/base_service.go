package services

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"go.uber.org/zap"

	"studio-system/internal/authz"
	"studio-system/internal/repositories"
	apperrors "studio-system/pkg/errors"
	"studio-system/pkg/types"
	"studio-system/pkg/utils"
)

// BaseService holds the cache helpers shared by the read-heavy services.
// A nil cache disables caching.
type BaseService struct {
	cache  repositories.CacheRepositoryInterface
	ttl    time.Duration
	logger *zap.Logger
}

func NewBaseService(cache repositories.CacheRepositoryInterface, ttl time.Duration, logger *zap.Logger) *BaseService {
	return &BaseService{cache: cache, ttl: ttl, logger: logger}
}

// CacheGet decodes the cached value of key into dest and reports a hit.
func (s *BaseService) CacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s == nil || s.cache == nil {
		return false
	}
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(cached), dest); err != nil {
		s.logger.Warn("dropping unreadable cache entry", zap.String("key", key), zap.Error(err))
		_ = s.cache.Del(ctx, key)
		return false
	}
	return true
}

func (s *BaseService) CacheSet(ctx context.Context, key string, data interface{}) {
	if s == nil || s.cache == nil {
		return
	}
	serialized, err := json.Marshal(data)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, serialized, s.ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Calendar resolves "today" and class start instants in the studio time zone.
type Calendar struct {
	Now      func() time.Time
	Location *time.Location
}

func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{Now: time.Now, Location: loc}
}

func (c Calendar) Today() time.Time {
	return utils.DateOf(c.Now().In(c.Location))
}

// StartsAt is the instant a class on date at clock (HH:MM) begins.
func (c Calendar) StartsAt(date time.Time, clock string) (time.Time, error) {
	return utils.StartsAt(date, clock, c.Location)
}

func buildAuthzContext(ctx context.Context, target interface{}) (authz.Context, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return authz.Context{}, err
	}
	permissionsMap, err := utils.GetPermissionsMapFromCtx(ctx)
	if err != nil {
		return authz.Context{}, err
	}
	studentID, _ := utils.GetStudentIDFromCtx(ctx)
	return authz.Context{
		ActorID:        userID,
		ActorStudentID: studentID,
		Permissions:    permissionsMap,
		Target:         target,
	}, nil
}

// authorize builds the actor context and checks permission against target.
func authorize(ctx context.Context, permission string, target interface{}) (authz.Context, error) {
	authContext, err := buildAuthzContext(ctx, target)
	if err != nil {
		return authz.Context{}, err
	}
	if !authz.CanDo(permission, authContext) {
		return authz.Context{}, apperrors.ErrForbidden
	}
	return authContext, nil
}

// permitTarget re-checks an already authorized actor against a loaded row.
func permitTarget(authContext authz.Context, permission string, target interface{}) error {
	authContext.Target = target
	if !authz.CanDo(permission, authContext) {
		return apperrors.ErrForbidden
	}
	return nil
}

// resolveStudentID returns the student an operation acts for. Staff must name
// one; a student may only name themselves.
func resolveStudentID(authContext authz.Context, requested uint64) (uint64, error) {
	if authContext.IsStaff() {
		if requested == 0 {
			return 0, apperrors.NewInvalidInputError("student_id is required")
		}
		return requested, nil
	}
	if authContext.ActorStudentID == 0 {
		return 0, apperrors.ErrStudentNotInContext
	}
	if requested != 0 && requested != authContext.ActorStudentID {
		return 0, apperrors.ErrForbidden
	}
	return authContext.ActorStudentID, nil
}

// scopeFilter narrows list queries of a student actor to their own rows.
func scopeFilter(authContext authz.Context, filter types.Filter) types.Filter {
	if authContext.IsStaff() {
		return filter
	}
	if filter.Filter == nil {
		filter.Filter = make(map[string]interface{})
	}
	filter.Filter["student_id"] = authContext.ActorStudentID
	return filter
}

// sortedUnique returns ids ascending without duplicates. Schedule rows are
// always locked in this order.
func sortedUnique(ids ...uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
