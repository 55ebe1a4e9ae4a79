package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/classlens/ai-assist/internal/cache"
	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
)

type MaterialPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewMaterialPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.MaterialRepository {
	return &MaterialPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (m *MaterialPostgreSQL) Create(ctx context.Context, material *models.StudyMaterial) error {
	if err := m.db.WithContext(ctx).Create(material).Error; err != nil {
		return err
	}
	cache.InvalidateMaterialCache(ctx, m.cacheManager, material.UID, material.TeacherID)
	return nil
}

func (m *MaterialPostgreSQL) GetByUID(ctx context.Context, uid string) (*models.StudyMaterial, error) {
	cacheKey := fmt.Sprintf("uid:%s", uid)
	var material models.StudyMaterial

	err := m.cacheManager.Material.CacheOrExecute(ctx, cacheKey, &material, cache.MaterialCacheConfig.TTL, func() (interface{}, error) {
		var dbMaterial models.StudyMaterial
		if err := m.db.WithContext(ctx).Where("uid = ?", uid).First(&dbMaterial).Error; err != nil {
			return nil, err
		}
		return &dbMaterial, nil
	})
	if err != nil {
		return nil, err
	}

	return &material, nil
}

func (m *MaterialPostgreSQL) Update(ctx context.Context, material *models.StudyMaterial) error {
	if err := m.db.WithContext(ctx).Save(material).Error; err != nil {
		return err
	}
	cache.InvalidateMaterialCache(ctx, m.cacheManager, material.UID, material.TeacherID)
	return nil
}

// UpdateFields applies a partial update. Callers are responsible for always
// including is_updated and updated_at so staleness tracking stays correct.
func (m *MaterialPostgreSQL) UpdateFields(ctx context.Context, uid string, fields map[string]interface{}) error {
	result := m.db.WithContext(ctx).
		Model(&models.StudyMaterial{}).
		Where("uid = ?", uid).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.SafeDelete(ctx, m.cacheManager.Material, fmt.Sprintf("uid:%s", uid))
	cache.SafeInvalidatePattern(ctx, m.cacheManager.Material, "list:*")
	return nil
}

func (m *MaterialPostgreSQL) Delete(ctx context.Context, uid string) error {
	result := m.db.WithContext(ctx).Where("uid = ?", uid).Delete(&models.StudyMaterial{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.SafeDelete(ctx, m.cacheManager.Material, fmt.Sprintf("uid:%s", uid))
	cache.SafeInvalidatePattern(ctx, m.cacheManager.Material, "list:*")
	return nil
}

func (m *MaterialPostgreSQL) List(ctx context.Context, filters repositories.MaterialFilters) ([]models.StudyMaterial, int64, error) {
	var materials []models.StudyMaterial
	var total int64

	query := m.db.WithContext(ctx).Model(&models.StudyMaterial{})
	query = m.helpers.ApplyMaterialFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = m.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&materials).Error; err != nil {
		return nil, 0, err
	}

	return materials, total, nil
}

func (m *MaterialPostgreSQL) ExistsByUID(ctx context.Context, uid string) (bool, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Model(&models.StudyMaterial{}).
		Where("uid = ?", uid).
		Count(&count).Error
	return count > 0, err
}
