package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/classlens/ai-assist/internal/cache"
	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
)

type SubmissionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewSubmissionPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

// Create inserts a submission. The unique index on (test_id, student_id)
// makes a second submission fail with gorm.ErrDuplicatedKey, which the
// service layer maps to a conflict.
func (s *SubmissionPostgreSQL) Create(ctx context.Context, submission *models.TestSubmission) error {
	return s.db.WithContext(ctx).Create(submission).Error
}

func (s *SubmissionPostgreSQL) GetByUID(ctx context.Context, uid string) (*models.TestSubmission, error) {
	var submission models.TestSubmission
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByTestAndStudent(ctx context.Context, testUID, studentUID string) (*models.TestSubmission, error) {
	var submission models.TestSubmission
	if err := s.db.WithContext(ctx).
		Where("test_id = ? AND student_id = ?", testUID, studentUID).
		First(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) List(ctx context.Context, filters repositories.SubmissionFilters) ([]models.TestSubmission, int64, error) {
	var submissions []models.TestSubmission
	var total int64

	query := s.db.WithContext(ctx).Model(&models.TestSubmission{})
	query = s.helpers.ApplySubmissionFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = "submitted_at"
	}
	query = s.helpers.ApplyPaginationAndSort(query, sortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func (s *SubmissionPostgreSQL) ListByTest(ctx context.Context, testUID string) ([]models.TestSubmission, error) {
	var submissions []models.TestSubmission
	if err := s.db.WithContext(ctx).
		Where("test_id = ?", testUID).
		Order("submitted_at ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (s *SubmissionPostgreSQL) CountByTest(ctx context.Context, testUID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.TestSubmission{}).
		Where("test_id = ?", testUID).
		Count(&count).Error
	return count, err
}
