package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/classlens/ai-assist/internal/events"
	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
	"github.com/classlens/ai-assist/internal/validator"
)

func newMaterialFixture(t *testing.T) (*fakeRepository, *events.MockEventPublisher, MaterialService) {
	t.Helper()
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher()
	svc := NewMaterialService(repo, testLogger(), validator.New(), publisher)
	return repo, publisher, svc
}

func TestMaterialUpdateForcesStalenessFlag(t *testing.T) {
	_, publisher, svc := newMaterialFixture(t)
	teacherID := uuid.NewString()

	material, err := svc.Create(context.Background(), &CreateMaterialRequest{
		Title:   "Cell Biology",
		Content: "Mitochondria are the powerhouse of the cell.",
	}, teacherID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if material.IsUpdated {
		t.Fatal("new material already marked updated")
	}

	// An empty PATCH still marks the material updated.
	updated, err := svc.Update(context.Background(), material.UID, &UpdateMaterialRequest{}, teacherID)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.IsUpdated {
		t.Error("IsUpdated = false after update")
	}
	if updated.UpdatedAt == nil {
		t.Error("UpdatedAt not set after update")
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	if published[0].Type != events.MaterialUpdated {
		t.Errorf("event type = %q", published[0].Type)
	}
}

func TestMaterialUpdateAppliesPartialFields(t *testing.T) {
	repo, _, svc := newMaterialFixture(t)
	teacherID := uuid.NewString()

	material, err := svc.Create(context.Background(), &CreateMaterialRequest{
		Title:       "Cell Biology",
		Description: "original",
		Content:     "body",
	}, teacherID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newTitle := "Cell Biology v2"
	updated, err := svc.Update(context.Background(), material.UID, &UpdateMaterialRequest{Title: &newTitle}, teacherID)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != newTitle {
		t.Errorf("Title = %q, want %q", updated.Title, newTitle)
	}
	if updated.Description != "original" || updated.Content != "body" {
		t.Errorf("untouched fields changed: %+v", updated)
	}

	stored, _ := repo.Material().GetByUID(context.Background(), material.UID)
	if stored.Title != newTitle {
		t.Errorf("stored Title = %q", stored.Title)
	}
}

func TestMaterialOwnershipEnforced(t *testing.T) {
	_, _, svc := newMaterialFixture(t)
	teacherID := uuid.NewString()

	material, err := svc.Create(context.Background(), &CreateMaterialRequest{Title: "Owned"}, teacherID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var perm *PermissionError
	if _, err := svc.Update(context.Background(), material.UID, &UpdateMaterialRequest{}, uuid.NewString()); !errors.As(err, &perm) {
		t.Fatalf("Update by stranger err = %v, want PermissionError", err)
	}
	if err := svc.Delete(context.Background(), material.UID, uuid.NewString()); !errors.As(err, &perm) {
		t.Fatalf("Delete by stranger err = %v, want PermissionError", err)
	}
}

func TestMaterialListScopesTeachers(t *testing.T) {
	repo, _, svc := newMaterialFixture(t)
	teacherA := uuid.NewString()
	teacherB := uuid.NewString()

	for _, teacher := range []string{teacherA, teacherA, teacherB} {
		if err := repo.Material().Create(context.Background(), &models.StudyMaterial{
			Title:     "m",
			TeacherID: teacher,
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	resp, err := svc.List(context.Background(), repositories.MaterialFilters{}, teacherA, models.RoleTeacher)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("teacher sees %d materials, want 2", resp.Total)
	}

	resp, err = svc.List(context.Background(), repositories.MaterialFilters{}, uuid.NewString(), models.RoleStudent)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("student sees %d materials, want 3", resp.Total)
	}
}

func TestMaterialDeleteMissing(t *testing.T) {
	_, _, svc := newMaterialFixture(t)
	if err := svc.Delete(context.Background(), uuid.NewString(), uuid.NewString()); !errors.Is(err, ErrMaterialNotFound) {
		t.Fatalf("err = %v, want ErrMaterialNotFound", err)
	}
}
