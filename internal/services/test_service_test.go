package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
	"github.com/classlens/ai-assist/internal/validator"
)

func newTestFixture(t *testing.T) (*fakeRepository, TestService, string, string) {
	t.Helper()
	repo := newFakeRepository()
	svc := NewTestService(repo, testLogger(), validator.New())

	teacherID := uuid.NewString()
	material := &models.StudyMaterial{Title: "Source Material", TeacherID: teacherID}
	if err := repo.Material().Create(context.Background(), material); err != nil {
		t.Fatalf("seed material: %v", err)
	}
	return repo, svc, teacherID, material.UID
}

func TestTestCreateAssignsDefaults(t *testing.T) {
	_, svc, teacherID, materialID := newTestFixture(t)

	test, err := svc.Create(context.Background(), &CreateTestRequest{
		Title:      "Quiz 1",
		MaterialID: materialID,
		Questions: []validator.QuestionCreateRequest{
			{Text: "Pick one", Type: "multiple-choice", Options: []string{"a", "b"}},
			{Text: "Explain", Type: "essay", Points: 5},
		},
	}, teacherID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if test.Duration != 3600 {
		t.Errorf("Duration = %d, want default 3600", test.Duration)
	}
	if test.Status != models.TestActive {
		t.Errorf("Status = %q, want active", test.Status)
	}
	if test.Questions[0].Points != 1 {
		t.Errorf("question points = %d, want default 1", test.Questions[0].Points)
	}
	if test.Questions[0].Position != 0 || test.Questions[1].Position != 1 {
		t.Errorf("positions = %d,%d; want 0,1", test.Questions[0].Position, test.Questions[1].Position)
	}
	if test.Questions[0].UID == "" {
		t.Error("question id not assigned")
	}
	if test.TotalPoints() != 6 {
		t.Errorf("TotalPoints = %d, want 6", test.TotalPoints())
	}
}

func TestTestCreateRejectsOptionlessMultipleChoice(t *testing.T) {
	_, svc, teacherID, materialID := newTestFixture(t)

	_, err := svc.Create(context.Background(), &CreateTestRequest{
		Title:      "Quiz",
		MaterialID: materialID,
		Questions: []validator.QuestionCreateRequest{
			{Text: "Pick one", Type: "multiple-choice"},
		},
	}, teacherID)

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("err = %v, want ValidationErrors", err)
	}
}

func TestTestCreateRejectsForeignMaterial(t *testing.T) {
	_, svc, _, materialID := newTestFixture(t)

	_, err := svc.Create(context.Background(), &CreateTestRequest{
		Title:      "Quiz",
		MaterialID: materialID,
		Questions: []validator.QuestionCreateRequest{
			{Text: "Explain", Type: "essay"},
		},
	}, uuid.NewString())

	var perm *PermissionError
	if !errors.As(err, &perm) {
		t.Fatalf("err = %v, want PermissionError", err)
	}
}

func TestTestListScopesByRole(t *testing.T) {
	repo, svc, teacherID, materialID := newTestFixture(t)

	seed := func(status models.TestStatus) {
		t.Helper()
		if err := repo.Test().Create(context.Background(), &models.Test{
			Title:      "t",
			MaterialID: materialID,
			TeacherID:  teacherID,
			Status:     status,
		}); err != nil {
			t.Fatalf("seed test: %v", err)
		}
	}
	seed(models.TestActive)
	seed(models.TestInactive)

	teacherView, err := svc.List(context.Background(), repositories.TestFilters{}, teacherID, models.RoleTeacher)
	if err != nil {
		t.Fatalf("List teacher: %v", err)
	}
	if teacherView.Total != 2 {
		t.Errorf("teacher sees %d tests, want 2", teacherView.Total)
	}

	studentView, err := svc.List(context.Background(), repositories.TestFilters{}, uuid.NewString(), models.RoleStudent)
	if err != nil {
		t.Fatalf("List student: %v", err)
	}
	if studentView.Total != 1 {
		t.Errorf("student sees %d tests, want only the active one", studentView.Total)
	}
}

func TestTestStatusUpdate(t *testing.T) {
	_, svc, teacherID, materialID := newTestFixture(t)

	test, err := svc.Create(context.Background(), &CreateTestRequest{
		Title:      "Quiz",
		MaterialID: materialID,
		Questions: []validator.QuestionCreateRequest{
			{Text: "Explain", Type: "essay"},
		},
	}, teacherID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), test.UID, &UpdateTestStatusRequest{Status: models.TestCompleted}, teacherID)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != models.TestCompleted {
		t.Errorf("Status = %q, want completed", updated.Status)
	}

	if _, err := svc.UpdateStatus(context.Background(), test.UID, &UpdateTestStatusRequest{Status: "archived"}, teacherID); err == nil {
		t.Error("invalid status accepted")
	}
}
