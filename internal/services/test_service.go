package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
	"github.com/classlens/ai-assist/internal/validator"
)

type testService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewTestService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) TestService {
	return &testService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// Create builds a test with its questions in one write. Question ids are
// assigned server-side; client-provided ids are ignored.
func (s *testService) Create(ctx context.Context, req *CreateTestRequest, teacherID string) (*models.Test, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateQuestions(req.Questions); len(errs) > 0 {
		return nil, errs
	}

	// The referenced material must exist and belong to the caller.
	material, err := s.repo.Material().GetByUID(ctx, req.MaterialID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	if material.TeacherID != teacherID {
		return nil, NewPermissionError(teacherID, req.MaterialID, "material", "attach test", "not owned by teacher")
	}

	duration := req.Duration
	if duration <= 0 {
		duration = 3600
	}

	questions := make([]models.Question, 0, len(req.Questions))
	for i, q := range req.Questions {
		points := q.Points
		if points <= 0 {
			points = 1
		}
		questions = append(questions, models.Question{
			Position: i,
			Text:     q.Text,
			Type:     models.QuestionType(q.Type),
			Options:  datatypes.NewJSONSlice(q.Options),
			Points:   points,
		})
	}

	test := &models.Test{
		Title:       req.Title,
		Description: req.Description,
		MaterialID:  req.MaterialID,
		TeacherID:   teacherID,
		Status:      models.TestActive,
		Duration:    duration,
		Questions:   questions,
	}

	if err := s.repo.Test().Create(ctx, test); err != nil {
		return nil, fmt.Errorf("failed to create test: %w", err)
	}

	s.logger.Info("Test created",
		"test_id", test.UID,
		"teacher_id", teacherID,
		"question_count", len(test.Questions))

	return test, nil
}

func (s *testService) GetByID(ctx context.Context, uid string) (*models.Test, error) {
	test, err := s.repo.Test().GetByUIDWithQuestions(ctx, uid)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return test, nil
}

func (s *testService) List(ctx context.Context, filters repositories.TestFilters, userID string, role models.UserRole) (*TestListResponse, error) {
	// Teachers see their own tests; students only see active ones.
	if role == models.RoleTeacher {
		filters.TeacherID = &userID
	} else {
		active := models.TestActive
		filters.Status = &active
	}

	tests, total, err := s.repo.Test().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	return &TestListResponse{Tests: tests, Total: total}, nil
}

func (s *testService) UpdateStatus(ctx context.Context, uid string, req *UpdateTestStatusRequest, teacherID string) (*models.Test, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	test, err := s.getOwned(ctx, uid, teacherID, "update status")
	if err != nil {
		return nil, err
	}

	if err := s.repo.Test().UpdateStatus(ctx, uid, req.Status); err != nil {
		return nil, fmt.Errorf("failed to update test status: %w", err)
	}

	test.Status = req.Status

	s.logger.Info("Test status updated",
		"test_id", uid,
		"status", req.Status,
		"teacher_id", teacherID)

	return test, nil
}

func (s *testService) Delete(ctx context.Context, uid string, teacherID string) error {
	if _, err := s.getOwned(ctx, uid, teacherID, "delete"); err != nil {
		return err
	}

	if err := s.repo.Test().Delete(ctx, uid); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTestNotFound
		}
		return fmt.Errorf("failed to delete test: %w", err)
	}

	s.logger.Info("Test deleted", "test_id", uid, "teacher_id", teacherID)

	return nil
}

func (s *testService) getOwned(ctx context.Context, uid, teacherID, action string) (*models.Test, error) {
	test, err := s.repo.Test().GetByUID(ctx, uid)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	if test.TeacherID != teacherID {
		return nil, NewPermissionError(teacherID, uid, "test", action, "not owned by teacher")
	}
	return test, nil
}
