package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/classlens/ai-assist/internal/events"
	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
	"github.com/classlens/ai-assist/internal/validator"
)

type materialService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewMaterialService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) MaterialService {
	return &materialService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *materialService) Create(ctx context.Context, req *CreateMaterialRequest, teacherID string) (*models.StudyMaterial, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	material := &models.StudyMaterial{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		FileName:    req.FileName,
		FileType:    req.FileType,
		FileSize:    req.FileSize,
		TeacherID:   teacherID,
	}

	if err := s.repo.Material().Create(ctx, material); err != nil {
		return nil, fmt.Errorf("failed to create material: %w", err)
	}

	s.logger.Info("Study material created",
		"material_id", material.UID,
		"teacher_id", teacherID)

	return material, nil
}

func (s *materialService) GetByID(ctx context.Context, uid string, userID string) (*models.StudyMaterial, error) {
	material, err := s.repo.Material().GetByUID(ctx, uid)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	return material, nil
}

func (s *materialService) List(ctx context.Context, filters repositories.MaterialFilters, userID string, role models.UserRole) (*MaterialListResponse, error) {
	// Teachers see only their own materials; students see everything shared
	// through active tests, which here means the full listing.
	if role == models.RoleTeacher {
		filters.TeacherID = &userID
	}

	materials, total, err := s.repo.Material().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}

	return &MaterialListResponse{Materials: materials, Total: total}, nil
}

// Update applies a partial update. Any successful update forces the staleness
// flag: is_updated is set and updated_at refreshed even when the payload
// carries no changed fields.
func (s *materialService) Update(ctx context.Context, uid string, req *UpdateMaterialRequest, teacherID string) (*models.StudyMaterial, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.getOwned(ctx, uid, teacherID, "update"); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"is_updated": true,
		"updated_at": time.Now(),
	}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Content != nil {
		fields["content"] = *req.Content
	}
	if req.FileName != nil {
		fields["file_name"] = *req.FileName
	}
	if req.FileType != nil {
		fields["file_type"] = *req.FileType
	}
	if req.FileSize != nil {
		fields["file_size"] = *req.FileSize
	}

	if err := s.repo.Material().UpdateFields(ctx, uid, fields); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to update material: %w", err)
	}

	s.publishMaterialUpdated(ctx, uid, teacherID)

	s.logger.Info("Study material updated", "material_id", uid, "teacher_id", teacherID)

	return s.repo.Material().GetByUID(ctx, uid)
}

// Replace swaps the whole document (new upload for an existing material).
func (s *materialService) Replace(ctx context.Context, uid string, req *CreateMaterialRequest, teacherID string) (*models.StudyMaterial, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	material, err := s.getOwned(ctx, uid, teacherID, "replace")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	material.Title = req.Title
	material.Description = req.Description
	material.Content = req.Content
	material.FileName = req.FileName
	material.FileType = req.FileType
	material.FileSize = req.FileSize
	material.IsUpdated = true
	material.UpdatedAt = &now

	if err := s.repo.Material().Update(ctx, material); err != nil {
		return nil, fmt.Errorf("failed to replace material: %w", err)
	}

	s.publishMaterialUpdated(ctx, uid, teacherID)

	s.logger.Info("Study material replaced", "material_id", uid, "teacher_id", teacherID)

	return material, nil
}

func (s *materialService) Delete(ctx context.Context, uid string, teacherID string) error {
	if _, err := s.getOwned(ctx, uid, teacherID, "delete"); err != nil {
		return err
	}

	if err := s.repo.Material().Delete(ctx, uid); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrMaterialNotFound
		}
		return fmt.Errorf("failed to delete material: %w", err)
	}

	s.logger.Info("Study material deleted", "material_id", uid, "teacher_id", teacherID)

	return nil
}

func (s *materialService) getOwned(ctx context.Context, uid, teacherID, action string) (*models.StudyMaterial, error) {
	material, err := s.repo.Material().GetByUID(ctx, uid)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	if material.TeacherID != teacherID {
		return nil, NewPermissionError(teacherID, uid, "material", action, "not owned by teacher")
	}
	return material, nil
}

func (s *materialService) publishMaterialUpdated(ctx context.Context, materialUID, teacherID string) {
	event := events.NewEvent(events.MaterialUpdated, map[string]any{
		"materialId": materialUID,
		"teacherId":  teacherID,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish material.updated event",
			"material_id", materialUID,
			"error", err)
	}
}
