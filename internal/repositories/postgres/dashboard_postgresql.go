package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/classlens/ai-assist/internal/cache"
	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
)

type DashboardPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewDashboardPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.DashboardRepository {
	return &DashboardPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (d *DashboardPostgreSQL) TeacherStats(ctx context.Context, teacherUID string) (*models.TeacherStats, error) {
	cacheKey := fmt.Sprintf("user:%s:teacher", teacherUID)
	var stats models.TeacherStats

	err := d.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return d.loadTeacherStats(ctx, teacherUID)
	})
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (d *DashboardPostgreSQL) loadTeacherStats(ctx context.Context, teacherUID string) (*models.TeacherStats, error) {
	stats := &models.TeacherStats{}
	db := d.db.WithContext(ctx)

	if err := db.Model(&models.StudyMaterial{}).
		Where("teacher_id = ?", teacherUID).
		Count(&stats.MaterialCount).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Test{}).
		Where("teacher_id = ?", teacherUID).
		Count(&stats.TestCount).Error; err != nil {
		return nil, err
	}

	teacherTests := d.db.Model(&models.Test{}).Select("uid").Where("teacher_id = ?", teacherUID)

	if err := db.Model(&models.TestSubmission{}).
		Where("test_id IN (?)", teacherTests).
		Count(&stats.SubmissionCount).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.AIAnalysis{}).
		Where("teacher_id = ?", teacherUID).
		Count(&stats.AnalysisCount).Error; err != nil {
		return nil, err
	}

	if err := db.
		Where("test_id IN (?)", teacherTests).
		Order("submitted_at DESC").
		Limit(10).
		Find(&stats.RecentActivity).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

func (d *DashboardPostgreSQL) StudentStats(ctx context.Context, studentUID string) (*models.StudentStats, error) {
	cacheKey := fmt.Sprintf("user:%s:student", studentUID)
	var stats models.StudentStats

	err := d.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return d.loadStudentStats(ctx, studentUID)
	})
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (d *DashboardPostgreSQL) loadStudentStats(ctx context.Context, studentUID string) (*models.StudentStats, error) {
	stats := &models.StudentStats{}
	db := d.db.WithContext(ctx)

	if err := db.Model(&models.TestSubmission{}).
		Where("student_id = ?", studentUID).
		Count(&stats.CompletedTests).Error; err != nil {
		return nil, err
	}

	taken := d.db.Model(&models.TestSubmission{}).Select("test_id").Where("student_id = ?", studentUID)

	// Active tests the student has not submitted yet
	if err := db.Model(&models.Test{}).
		Where("status = ?", models.TestActive).
		Where("uid NOT IN (?)", taken).
		Count(&stats.AvailableTests).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
