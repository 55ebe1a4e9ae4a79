package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/classlens/ai-assist/internal/events"
	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
	"github.com/classlens/ai-assist/internal/validator"
)

type submissionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewSubmissionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) SubmissionService {
	return &submissionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Create records a student's single allowed submission. The guard has two
// layers: a read-then-check for a clear error on the common path, and the
// unique index for the race between concurrent submits. The index violation
// is authoritative.
func (s *submissionService) Create(ctx context.Context, req *CreateSubmissionRequest, studentID, studentName string) (*models.TestSubmission, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := validateAnswersPayload(req.Answers); err != nil {
		return nil, err
	}

	test, err := s.repo.Test().GetByUIDWithQuestions(ctx, req.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	if test.Status != models.TestActive {
		return nil, ErrTestNotActive
	}

	existing, err := s.repo.Submission().GetByTestAndStudent(ctx, req.TestID, studentID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing submission: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateSubmission
	}

	submission := &models.TestSubmission{
		TestID:      req.TestID,
		StudentID:   studentID,
		StudentName: studentName,
		Answers:     datatypes.JSON(req.Answers),
		MaxScore:    test.TotalPoints(),
		Status:      models.SubmissionSubmitted,
		TimeSpent:   req.TimeSpent,
	}
	if req.StudentName != "" {
		submission.StudentName = req.StudentName
	}

	if err := s.repo.Submission().Create(ctx, submission); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrDuplicateSubmission
		}
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	s.publishSubmissionReceived(ctx, submission)

	s.logger.Info("Submission recorded",
		"submission_id", submission.UID,
		"test_id", req.TestID,
		"student_id", studentID)

	return submission, nil
}

func (s *submissionService) GetByID(ctx context.Context, uid string) (*models.TestSubmission, error) {
	submission, err := s.repo.Submission().GetByUID(ctx, uid)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return submission, nil
}

func (s *submissionService) ListByTest(ctx context.Context, testUID string, teacherID string) (*SubmissionListResponse, error) {
	test, err := s.repo.Test().GetByUID(ctx, testUID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	if test.TeacherID != teacherID {
		return nil, NewPermissionError(teacherID, testUID, "test", "list submissions", "not owned by teacher")
	}

	submissions, err := s.repo.Submission().ListByTest(ctx, testUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return &SubmissionListResponse{Submissions: submissions, Total: int64(len(submissions))}, nil
}

func (s *submissionService) ListByStudent(ctx context.Context, studentID string) (*SubmissionListResponse, error) {
	filters := repositories.SubmissionFilters{StudentID: &studentID}
	submissions, total, err := s.repo.Submission().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return &SubmissionListResponse{Submissions: submissions, Total: total}, nil
}

func (s *submissionService) HasSubmitted(ctx context.Context, testUID, studentID string) (bool, error) {
	_, err := s.repo.Submission().GetByTestAndStudent(ctx, testUID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check submission: %w", err)
	}
	return true, nil
}

// validateAnswersPayload accepts the two supported answer shapes: an ordered
// list of {questionId, answer} or a map keyed by question id.
func validateAnswersPayload(raw json.RawMessage) error {
	var list []models.SubmissionAnswer
	if err := json.Unmarshal(raw, &list); err == nil {
		return nil
	}
	var keyed map[string]string
	if err := json.Unmarshal(raw, &keyed); err == nil {
		return nil
	}
	return validator.ValidationErrors{{
		Field:   "answers",
		Message: "must be a list of {questionId, answer} objects or a map of question id to answer",
		Rule:    "answers_shape",
	}}
}

func (s *submissionService) publishSubmissionReceived(ctx context.Context, submission *models.TestSubmission) {
	event := events.NewEvent(events.SubmissionReceived, map[string]any{
		"submissionId": submission.UID,
		"testId":       submission.TestID,
		"studentId":    submission.StudentID,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish submission.received event",
			"submission_id", submission.UID,
			"error", err)
	}
}
