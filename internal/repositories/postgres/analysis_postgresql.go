package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/classlens/ai-assist/internal/cache"
	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
)

type AnalysisPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAnalysisPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AnalysisRepository {
	return &AnalysisPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (a *AnalysisPostgreSQL) Create(ctx context.Context, analysis *models.AIAnalysis) error {
	if err := a.db.WithContext(ctx).Create(analysis).Error; err != nil {
		return err
	}
	cache.InvalidateStatsCache(ctx, a.cacheManager, analysis.TeacherID)
	return nil
}

func (a *AnalysisPostgreSQL) GetByUID(ctx context.Context, uid string) (*models.AIAnalysis, error) {
	var analysis models.AIAnalysis
	if err := a.db.WithContext(ctx).Where("uid = ?", uid).First(&analysis).Error; err != nil {
		return nil, err
	}
	return &analysis, nil
}

func (a *AnalysisPostgreSQL) GetLatest(ctx context.Context, testUID, materialUID string) (*models.AIAnalysis, error) {
	var analysis models.AIAnalysis
	if err := a.db.WithContext(ctx).
		Where("test_id = ? AND material_id = ?", testUID, materialUID).
		Order("analysis_date DESC").
		First(&analysis).Error; err != nil {
		return nil, err
	}
	return &analysis, nil
}

// List returns analyses most-recent first.
func (a *AnalysisPostgreSQL) List(ctx context.Context, filters repositories.AnalysisFilters) ([]models.AIAnalysis, int64, error) {
	var analyses []models.AIAnalysis
	var total int64

	query := a.db.WithContext(ctx).Model(&models.AIAnalysis{})
	if filters.TestID != nil {
		query = query.Where("test_id = ?", *filters.TestID)
	}
	if filters.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filters.TeacherID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("analysis_date DESC").Find(&analyses).Error; err != nil {
		return nil, 0, err
	}

	return analyses, total, nil
}
