package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateMaterialCache invalidates all material-related caches
func InvalidateMaterialCache(ctx context.Context, cm *CacheManager, materialUID, teacherUID string) {
	SafeDelete(ctx, cm.Material, fmt.Sprintf("uid:%s", materialUID))
	SafeInvalidatePattern(ctx, cm.Material, fmt.Sprintf("teacher:%s:*", teacherUID))
	SafeInvalidatePattern(ctx, cm.Material, "list:*")
	SafeDelete(ctx, cm.Exists, fmt.Sprintf("material:%s", materialUID))
}

// InvalidateTestCache invalidates all test-related caches
func InvalidateTestCache(ctx context.Context, cm *CacheManager, testUID, teacherUID string) {
	SafeDelete(ctx, cm.Test,
		fmt.Sprintf("uid:%s", testUID),
		fmt.Sprintf("questions:%s", testUID))
	SafeInvalidatePattern(ctx, cm.Test, fmt.Sprintf("teacher:%s:*", teacherUID))
	SafeInvalidatePattern(ctx, cm.Test, "list:*")
}

// InvalidateStatsCache invalidates dashboard caches for a user
func InvalidateStatsCache(ctx context.Context, cm *CacheManager, userUID string) {
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("user:%s:*", userUID))
}
