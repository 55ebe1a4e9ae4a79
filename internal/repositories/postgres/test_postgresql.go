package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/classlens/ai-assist/internal/cache"
	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
)

type TestPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewTestPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.TestRepository {
	return &TestPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (t *TestPostgreSQL) Create(ctx context.Context, test *models.Test) error {
	if err := t.db.WithContext(ctx).Create(test).Error; err != nil {
		return err
	}
	cache.InvalidateTestCache(ctx, t.cacheManager, test.UID, test.TeacherID)
	return nil
}

func (t *TestPostgreSQL) GetByUID(ctx context.Context, uid string) (*models.Test, error) {
	var test models.Test
	if err := t.db.WithContext(ctx).Where("uid = ?", uid).First(&test).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (t *TestPostgreSQL) GetByUIDWithQuestions(ctx context.Context, uid string) (*models.Test, error) {
	cacheKey := fmt.Sprintf("questions:%s", uid)
	var test models.Test

	err := t.cacheManager.Test.CacheOrExecute(ctx, cacheKey, &test, cache.TestCacheConfig.TTL, func() (interface{}, error) {
		var dbTest models.Test
		if err := t.db.WithContext(ctx).
			Preload("Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC")
			}).
			Where("uid = ?", uid).
			First(&dbTest).Error; err != nil {
			return nil, err
		}
		return &dbTest, nil
	})
	if err != nil {
		return nil, err
	}

	return &test, nil
}

func (t *TestPostgreSQL) Update(ctx context.Context, test *models.Test) error {
	if err := t.db.WithContext(ctx).Save(test).Error; err != nil {
		return err
	}
	cache.InvalidateTestCache(ctx, t.cacheManager, test.UID, test.TeacherID)
	return nil
}

func (t *TestPostgreSQL) UpdateStatus(ctx context.Context, uid string, status models.TestStatus) error {
	result := t.db.WithContext(ctx).
		Model(&models.Test{}).
		Where("uid = ?", uid).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.SafeDelete(ctx, t.cacheManager.Test,
		fmt.Sprintf("uid:%s", uid),
		fmt.Sprintf("questions:%s", uid))
	cache.SafeInvalidatePattern(ctx, t.cacheManager.Test, "list:*")
	return nil
}

func (t *TestPostgreSQL) Delete(ctx context.Context, uid string) error {
	result := t.db.WithContext(ctx).Where("uid = ?", uid).Delete(&models.Test{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.SafeDelete(ctx, t.cacheManager.Test,
		fmt.Sprintf("uid:%s", uid),
		fmt.Sprintf("questions:%s", uid))
	cache.SafeInvalidatePattern(ctx, t.cacheManager.Test, "list:*")
	return nil
}

func (t *TestPostgreSQL) List(ctx context.Context, filters repositories.TestFilters) ([]models.Test, int64, error) {
	var tests []models.Test
	var total int64

	query := t.db.WithContext(ctx).Model(&models.Test{})
	query = t.helpers.ApplyTestFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = t.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Find(&tests).Error; err != nil {
		return nil, 0, err
	}

	return tests, total, nil
}
