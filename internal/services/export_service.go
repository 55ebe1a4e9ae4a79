package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportSubmissions renders a test's submissions as a spreadsheet: one row
// per student, one column per question in authoring order, plus timing
// metadata. Unanswered questions leave the cell empty.
func (s *exportService) ExportSubmissions(ctx context.Context, testUID string, teacherID string) (*ExportResult, error) {
	test, err := s.repo.Test().GetByUIDWithQuestions(ctx, testUID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	if test.TeacherID != teacherID {
		return nil, NewPermissionError(teacherID, testUID, "test", "export", "not owned by teacher")
	}

	submissions, err := s.repo.Submission().ListByTest(ctx, testUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Submissions"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Student", "Submitted At", "Time Spent (s)"}
	for i := range test.Questions {
		headers = append(headers, fmt.Sprintf("Q%d", i+1))
	}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, sub := range submissions {
		answers := answersByQuestion(&sub)

		values := []interface{}{
			sub.StudentName,
			sub.SubmittedAt.Format("2006-01-02 15:04:05"),
			sub.TimeSpent,
		}
		for _, q := range test.Questions {
			values = append(values, answers[q.UID])
		}

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render spreadsheet: %w", err)
	}

	s.logger.Info("Submissions exported",
		"test_id", testUID,
		"rows", len(submissions))

	return &ExportResult{
		FileName: sanitizeFileName(test.Title) + "-submissions.xlsx",
		Data:     buf.Bytes(),
	}, nil
}

func answersByQuestion(sub *models.TestSubmission) map[string]string {
	out := make(map[string]string)
	answers, err := sub.NormalizedAnswers()
	if err != nil {
		return out
	}
	for _, a := range answers {
		out[a.QuestionID] = a.Answer
	}
	return out
}
