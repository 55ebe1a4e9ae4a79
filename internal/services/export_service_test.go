package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/classlens/ai-assist/internal/models"
)

func TestExportSubmissionsRequiresOwnership(t *testing.T) {
	repo := newFakeRepository()
	svc := NewExportService(repo, testLogger())

	test := seedActiveTest(t, repo, uuid.NewString())

	var perm *PermissionError
	if _, err := svc.ExportSubmissions(context.Background(), test.UID, uuid.NewString()); !errors.As(err, &perm) {
		t.Fatalf("err = %v, want PermissionError", err)
	}
}

func TestExportSubmissionsMissingTest(t *testing.T) {
	repo := newFakeRepository()
	svc := NewExportService(repo, testLogger())

	if _, err := svc.ExportSubmissions(context.Background(), uuid.NewString(), uuid.NewString()); !errors.Is(err, ErrTestNotFound) {
		t.Fatalf("err = %v, want ErrTestNotFound", err)
	}
}

func TestExportSubmissionsSpreadsheet(t *testing.T) {
	repo := newFakeRepository()
	svc := NewExportService(repo, testLogger())

	teacherID := uuid.NewString()
	test := seedActiveTest(t, repo, teacherID)

	submittedAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	sub := &models.TestSubmission{
		TestID:      test.UID,
		StudentID:   uuid.NewString(),
		StudentName: "Dana",
		Answers:     datatypes.JSON(listAnswers(t, test.Questions[0].UID, "a pigment")),
		TimeSpent:   95,
		SubmittedAt: submittedAt,
		Status:      models.SubmissionSubmitted,
	}
	if err := repo.Submission().Create(context.Background(), sub); err != nil {
		t.Fatalf("seed submission: %v", err)
	}

	result, err := svc.ExportSubmissions(context.Background(), test.UID, teacherID)
	if err != nil {
		t.Fatalf("ExportSubmissions: %v", err)
	}
	if result.FileName != "Photosynthesis-Quiz-submissions.xlsx" {
		t.Errorf("FileName = %q", result.FileName)
	}

	f, err := excelize.OpenReader(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Submissions")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}

	wantHeader := []string{"Student", "Submitted At", "Time Spent (s)", "Q1", "Q2"}
	for i, want := range wantHeader {
		if rows[0][i] != want {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], want)
		}
	}

	row := rows[1]
	if row[0] != "Dana" {
		t.Errorf("student = %q", row[0])
	}
	if row[1] != "2026-03-14 10:30:00" {
		t.Errorf("submitted at = %q", row[1])
	}
	if row[2] != "95" {
		t.Errorf("time spent = %q", row[2])
	}
	if row[3] != "a pigment" {
		t.Errorf("Q1 answer = %q", row[3])
	}
	// Q2 was never answered; excelize trims trailing empty cells.
	if len(row) > 4 && row[4] != "" {
		t.Errorf("Q2 answer = %q, want empty", row[4])
	}
}
