package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
)

type dashboardService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewDashboardService(repo repositories.Repository, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:   repo,
		logger: logger,
	}
}

func (s *dashboardService) TeacherDashboard(ctx context.Context, teacherID string) (*models.TeacherStats, error) {
	stats, err := s.repo.Dashboard().TeacherStats(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to load teacher dashboard: %w", err)
	}
	return stats, nil
}

func (s *dashboardService) StudentDashboard(ctx context.Context, studentID string) (*models.StudentStats, error) {
	stats, err := s.repo.Dashboard().StudentStats(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student dashboard: %w", err)
	}
	return stats, nil
}
