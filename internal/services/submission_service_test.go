package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classlens/ai-assist/internal/events"
	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/validator"
)

func seedActiveTest(t *testing.T, repo *fakeRepository, teacherID string) *models.Test {
	t.Helper()
	test := &models.Test{
		Title:     "Photosynthesis Quiz",
		TeacherID: teacherID,
		Status:    models.TestActive,
		Duration:  3600,
		Questions: []models.Question{
			{Text: "What is chlorophyll?", Type: models.QuestionShortAnswer, Points: 2, Position: 0},
			{Text: "Where does it happen?", Type: models.QuestionShortAnswer, Points: 3, Position: 1},
		},
	}
	if err := repo.Test().Create(context.Background(), test); err != nil {
		t.Fatalf("seed test: %v", err)
	}
	return test
}

func listAnswers(t *testing.T, pairs ...string) json.RawMessage {
	t.Helper()
	answers := make([]models.SubmissionAnswer, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		answers = append(answers, models.SubmissionAnswer{QuestionID: pairs[i], Answer: pairs[i+1]})
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("marshal answers: %v", err)
	}
	return raw
}

func TestSubmissionCreate(t *testing.T) {
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher()
	svc := NewSubmissionService(repo, testLogger(), validator.New(), publisher)

	test := seedActiveTest(t, repo, uuid.NewString())
	studentID := uuid.NewString()

	req := &CreateSubmissionRequest{
		TestID:    test.UID,
		Answers:   listAnswers(t, test.Questions[0].UID, "a pigment", test.Questions[1].UID, "chloroplasts"),
		TimeSpent: 120,
	}

	submission, err := svc.Create(context.Background(), req, studentID, "Dana Kim")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if submission.UID == "" {
		t.Error("submission has no id")
	}
	if submission.MaxScore != 5 {
		t.Errorf("MaxScore = %d, want 5 (sum of question points)", submission.MaxScore)
	}
	if submission.Status != models.SubmissionSubmitted {
		t.Errorf("Status = %q, want %q", submission.Status, models.SubmissionSubmitted)
	}
	if submission.StudentName != "Dana Kim" {
		t.Errorf("StudentName = %q", submission.StudentName)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.SubmissionReceived {
		t.Fatalf("expected one %s event, got %+v", events.SubmissionReceived, published)
	}
}

func TestSubmissionCreateAcceptsKeyedAnswers(t *testing.T) {
	repo := newFakeRepository()
	svc := NewSubmissionService(repo, testLogger(), validator.New(), events.NewMockEventPublisher())

	test := seedActiveTest(t, repo, uuid.NewString())

	raw, _ := json.Marshal(map[string]string{
		test.Questions[0].UID: "a pigment",
	})
	req := &CreateSubmissionRequest{TestID: test.UID, Answers: raw}

	if _, err := svc.Create(context.Background(), req, uuid.NewString(), "Sam"); err != nil {
		t.Fatalf("keyed answers rejected: %v", err)
	}
}

func TestSubmissionCreateRejectsMalformedAnswers(t *testing.T) {
	repo := newFakeRepository()
	svc := NewSubmissionService(repo, testLogger(), validator.New(), events.NewMockEventPublisher())

	test := seedActiveTest(t, repo, uuid.NewString())

	req := &CreateSubmissionRequest{TestID: test.UID, Answers: json.RawMessage(`"not answers"`)}

	_, err := svc.Create(context.Background(), req, uuid.NewString(), "Sam")
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
}

func TestSubmissionCreateRejectsInactiveTest(t *testing.T) {
	repo := newFakeRepository()
	svc := NewSubmissionService(repo, testLogger(), validator.New(), events.NewMockEventPublisher())

	test := seedActiveTest(t, repo, uuid.NewString())
	if err := repo.Test().UpdateStatus(context.Background(), test.UID, models.TestInactive); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	req := &CreateSubmissionRequest{TestID: test.UID, Answers: listAnswers(t, test.Questions[0].UID, "x")}
	if _, err := svc.Create(context.Background(), req, uuid.NewString(), "Sam"); !errors.Is(err, ErrTestNotActive) {
		t.Fatalf("err = %v, want ErrTestNotActive", err)
	}
}

func TestSubmissionGuardRejectsSecondSubmit(t *testing.T) {
	repo := newFakeRepository()
	svc := NewSubmissionService(repo, testLogger(), validator.New(), events.NewMockEventPublisher())

	test := seedActiveTest(t, repo, uuid.NewString())
	studentID := uuid.NewString()
	req := &CreateSubmissionRequest{TestID: test.UID, Answers: listAnswers(t, test.Questions[0].UID, "x")}

	if _, err := svc.Create(context.Background(), req, studentID, "Sam"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := svc.Create(context.Background(), req, studentID, "Sam"); !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("second submit err = %v, want ErrDuplicateSubmission", err)
	}
}

func TestSubmissionGuardRacingWriterHitsUniqueIndex(t *testing.T) {
	repo := newFakeRepository()
	svc := NewSubmissionService(repo, testLogger(), validator.New(), events.NewMockEventPublisher())

	test := seedActiveTest(t, repo, uuid.NewString())

	// The read-then-check sees nothing, but the insert collides with a
	// concurrent writer. The unique-index violation is authoritative.
	repo.submissions.failCreateWith = gorm.ErrDuplicatedKey

	req := &CreateSubmissionRequest{TestID: test.UID, Answers: listAnswers(t, test.Questions[0].UID, "x")}
	if _, err := svc.Create(context.Background(), req, uuid.NewString(), "Sam"); !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("err = %v, want ErrDuplicateSubmission", err)
	}
}

func TestHasSubmitted(t *testing.T) {
	repo := newFakeRepository()
	svc := NewSubmissionService(repo, testLogger(), validator.New(), events.NewMockEventPublisher())

	test := seedActiveTest(t, repo, uuid.NewString())
	studentID := uuid.NewString()

	submitted, err := svc.HasSubmitted(context.Background(), test.UID, studentID)
	if err != nil || submitted {
		t.Fatalf("HasSubmitted before = %v, %v; want false, nil", submitted, err)
	}

	req := &CreateSubmissionRequest{TestID: test.UID, Answers: listAnswers(t, test.Questions[0].UID, "x")}
	if _, err := svc.Create(context.Background(), req, studentID, "Sam"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	submitted, err = svc.HasSubmitted(context.Background(), test.UID, studentID)
	if err != nil || !submitted {
		t.Fatalf("HasSubmitted after = %v, %v; want true, nil", submitted, err)
	}
}

func TestListByTestRequiresOwnership(t *testing.T) {
	repo := newFakeRepository()
	svc := NewSubmissionService(repo, testLogger(), validator.New(), events.NewMockEventPublisher())

	test := seedActiveTest(t, repo, uuid.NewString())

	_, err := svc.ListByTest(context.Background(), test.UID, uuid.NewString())
	var perm *PermissionError
	if !errors.As(err, &perm) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
}
