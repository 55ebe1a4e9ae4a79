package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
	"github.com/classlens/ai-assist/internal/validator"
)

const (
	sessionKeyPrefix = "session:"

	// DefaultSessionDuration bounds a test-taking window when the test
	// carries no duration of its own.
	DefaultSessionDuration = 3600

	// sessionGrace keeps expired sessions readable long enough for a late
	// submit to be recorded as timed out instead of vanishing.
	sessionGrace = 5 * time.Minute

	EndReasonCompleted = "completed"
	EndReasonTimeOut   = "time_out"
)

// sessionRecord is the Redis-stored session state. All timing decisions are
// made server-side from StartedAt; clients only mirror this state.
type sessionRecord struct {
	TestID          string            `json:"testId"`
	StudentID       string            `json:"studentId"`
	StartedAt       time.Time         `json:"startedAt"`
	Duration        int               `json:"duration"`
	CurrentQuestion int               `json:"currentQuestion"`
	Answers         map[string]string `json:"answers"`
	QuestionCount   int               `json:"questionCount"`
}

type sessionService struct {
	repo        repositories.Repository
	redisClient *redis.Client
	logger      *slog.Logger
	validator   *validator.Validator
	submissions SubmissionService
}

func NewSessionService(repo repositories.Repository, redisClient *redis.Client, logger *slog.Logger, validator *validator.Validator, submissions SubmissionService) SessionService {
	return &sessionService{
		repo:        repo,
		redisClient: redisClient,
		logger:      logger,
		validator:   validator,
		submissions: submissions,
	}
}

func sessionKey(testUID, studentUID string) string {
	return fmt.Sprintf("%s%s:%s", sessionKeyPrefix, testUID, studentUID)
}

// Start opens a timed session, or resumes the existing one. Students who
// already submitted are rejected before any session state is created.
func (s *sessionService) Start(ctx context.Context, req *StartSessionRequest, studentID string) (*SessionState, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	submitted, err := s.submissions.HasSubmitted(ctx, req.TestID, studentID)
	if err != nil {
		return nil, err
	}
	if submitted {
		return nil, ErrDuplicateSubmission
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

	// Resume an open session instead of restarting the clock. Only a
	// confirmed missing session may start a fresh one; a failed read must
	// not silently reset the student's timer.
	record, err := s.load(ctx, req.TestID, studentID)
	if err == nil {
		return s.toState(record), nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	duration := test.Duration
	if duration <= 0 {
		duration = DefaultSessionDuration
	}

	record = &sessionRecord{
		TestID:        req.TestID,
		StudentID:     studentID,
		StartedAt:     time.Now(),
		Duration:      duration,
		Answers:       make(map[string]string),
		QuestionCount: len(test.Questions),
	}

	if err := s.store(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("Test session started",
		"test_id", req.TestID,
		"student_id", studentID,
		"duration", duration)

	return s.toState(record), nil
}

// Answer records one answer. Answers stay sparse: unanswered questions have
// no entry, and re-answering overwrites.
func (s *sessionService) Answer(ctx context.Context, testUID string, req *SessionAnswerRequest, studentID string) (*SessionState, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	record, err := s.loadOpen(ctx, testUID, studentID)
	if err != nil {
		return nil, err
	}

	record.Answers[req.QuestionID] = req.Answer

	if err := s.store(ctx, record); err != nil {
		return nil, err
	}

	return s.toState(record), nil
}

func (s *sessionService) Navigate(ctx context.Context, testUID string, req *SessionNavigateRequest, studentID string) (*SessionState, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	record, err := s.loadOpen(ctx, testUID, studentID)
	if err != nil {
		return nil, err
	}

	if req.QuestionIndex >= record.QuestionCount {
		return nil, validator.ValidationErrors{{
			Field:   "questionIndex",
			Message: fmt.Sprintf("must be below the question count (%d)", record.QuestionCount),
			Value:   req.QuestionIndex,
			Rule:    "question_index",
		}}
	}

	record.CurrentQuestion = req.QuestionIndex

	if err := s.store(ctx, record); err != nil {
		return nil, err
	}

	return s.toState(record), nil
}

func (s *sessionService) State(ctx context.Context, testUID string, studentID string) (*SessionState, error) {
	record, err := s.load(ctx, testUID, studentID)
	if err != nil {
		return nil, err
	}
	return s.toState(record), nil
}

// Submit converts the sparse answer map into an ordered answer list (in
// question order, omitting unanswered questions) and records the submission.
// An expired session still submits, with time_spent clamped to the full
// duration and the end reason marked time_out. A failed submission keeps the
// session alive so the student can retry.
func (s *sessionService) Submit(ctx context.Context, testUID string, studentID, studentName string) (*SessionSubmitResult, error) {
	record, err := s.load(ctx, testUID, studentID)
	if err != nil {
		return nil, err
	}

	test, err := s.repo.Test().GetByUIDWithQuestions(ctx, testUID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	elapsed := int(time.Since(record.StartedAt).Seconds())
	timedOut := elapsed >= record.Duration
	endReason := EndReasonCompleted
	if timedOut {
		elapsed = record.Duration
		endReason = EndReasonTimeOut
	}

	answers := make([]models.SubmissionAnswer, 0, len(record.Answers))
	for _, q := range test.Questions {
		if answer, ok := record.Answers[q.UID]; ok {
			answers = append(answers, models.SubmissionAnswer{
				QuestionID: q.UID,
				Answer:     answer,
			})
		}
	}

	payload, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}

	submission, err := s.submissions.Create(ctx, &CreateSubmissionRequest{
		TestID:    testUID,
		Answers:   payload,
		TimeSpent: elapsed,
	}, studentID, studentName)
	if err != nil {
		// Session stays alive; the student keeps their answers.
		return nil, err
	}

	if err := s.redisClient.Del(ctx, sessionKey(testUID, studentID)).Err(); err != nil {
		s.logger.Warn("Failed to delete submitted session",
			"test_id", testUID,
			"student_id", studentID,
			"error", err)
	}

	s.logger.Info("Test session submitted",
		"test_id", testUID,
		"student_id", studentID,
		"end_reason", endReason,
		"answered", len(answers))

	return &SessionSubmitResult{
		Submission: submission,
		EndReason:  endReason,
		TimedOut:   timedOut,
	}, nil
}

func (s *sessionService) load(ctx context.Context, testUID, studentUID string) (*sessionRecord, error) {
	data, err := s.redisClient.Get(ctx, sessionKey(testUID, studentUID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if record.Answers == nil {
		record.Answers = make(map[string]string)
	}

	return &record, nil
}

// loadOpen rejects mutations on sessions whose window has closed.
func (s *sessionService) loadOpen(ctx context.Context, testUID, studentUID string) (*sessionRecord, error) {
	record, err := s.load(ctx, testUID, studentUID)
	if err != nil {
		return nil, err
	}
	if int(time.Since(record.StartedAt).Seconds()) >= record.Duration {
		return nil, ErrSessionExpired
	}
	return record, nil
}

func (s *sessionService) store(ctx context.Context, record *sessionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	ttl := time.Duration(record.Duration)*time.Second + sessionGrace
	if err := s.redisClient.Set(ctx, sessionKey(record.TestID, record.StudentID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

func (s *sessionService) toState(record *sessionRecord) *SessionState {
	remaining := record.Duration - int(time.Since(record.StartedAt).Seconds())
	if remaining < 0 {
		remaining = 0
	}

	return &SessionState{
		TestID:          record.TestID,
		StudentID:       record.StudentID,
		StartedAt:       record.StartedAt,
		Duration:        record.Duration,
		RemainingTime:   remaining,
		CurrentQuestion: record.CurrentQuestion,
		Answers:         record.Answers,
		QuestionCount:   record.QuestionCount,
	}
}
