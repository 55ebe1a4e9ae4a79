package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/classlens/ai-assist/internal/ai"
	"github.com/classlens/ai-assist/internal/events"
	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
	"github.com/classlens/ai-assist/internal/validator"
)

type analysisService struct {
	repo      repositories.Repository
	analyzer  ai.Analyzer
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

// NewAnalysisService wires the analysis orchestrator. analyzer may be nil
// when no AI provider is configured; Analyze then fails with a distinct
// configuration error while Save, List, and ImproveMaterial keep working.
func NewAnalysisService(repo repositories.Repository, analyzer ai.Analyzer, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) AnalysisService {
	return &analysisService{
		repo:      repo,
		analyzer:  analyzer,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Analyze runs the full pipeline: preconditions, data assembly, the AI call,
// and persistence. Preconditions are checked before the AI is contacted so a
// test without submissions never costs an API call.
func (s *analysisService) Analyze(ctx context.Context, req *AnalyzeTestRequest, teacherID string) (*models.AIAnalysis, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	test, material, err := s.loadOwnedPair(ctx, req.TestID, req.MaterialID, teacherID, "analyze")
	if err != nil {
		return nil, err
	}

	submissions, err := s.repo.Submission().ListByTest(ctx, req.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	if len(submissions) == 0 {
		return nil, ErrNoSubmissions
	}

	if s.analyzer == nil {
		return nil, ErrAINotConfigured
	}

	aiReq := s.buildAnalysisRequest(test, material, submissions)

	started := time.Now()
	result, err := s.analyzer.Analyze(ctx, aiReq)
	if err != nil {
		s.logger.Error("AI analysis failed",
			"test_id", req.TestID,
			"error", err)
		return nil, fmt.Errorf("%w: %v", ErrAIAnalysisFailed, err)
	}

	analysis := &models.AIAnalysis{
		TestID:          req.TestID,
		MaterialID:      req.MaterialID,
		TeacherID:       teacherID,
		Misconceptions:  datatypes.NewJSONSlice(result.Misconceptions),
		ContentGuidance: datatypes.NewJSONSlice(result.ContentGuidance),
		OverallInsights: datatypes.NewJSONSlice(result.OverallInsights),
		SubmissionCount: len(submissions),
		Fallback:        result.Fallback,
	}

	if err := s.repo.Analysis().Create(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}

	s.publishAnalysisCompleted(ctx, analysis)

	s.logger.Info("Analysis completed",
		"analysis_id", analysis.UID,
		"test_id", req.TestID,
		"submission_count", len(submissions),
		"fallback", analysis.Fallback,
		"duration_ms", time.Since(started).Milliseconds())

	return analysis, nil
}

// Save persists an externally produced analysis document after validating
// the referenced test and material.
func (s *analysisService) Save(ctx context.Context, req *CreateAnalysisRequest, teacherID string) (*models.AIAnalysis, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, _, err := s.loadOwnedPair(ctx, req.TestID, req.MaterialID, teacherID, "save analysis"); err != nil {
		return nil, err
	}

	analysis := &models.AIAnalysis{
		TestID:          req.TestID,
		MaterialID:      req.MaterialID,
		TeacherID:       teacherID,
		Misconceptions:  datatypes.NewJSONSlice(req.Misconceptions),
		ContentGuidance: datatypes.NewJSONSlice(req.ContentGuidance),
		OverallInsights: datatypes.NewJSONSlice(req.OverallInsights),
		SubmissionCount: req.SubmissionCount,
	}

	if err := s.repo.Analysis().Create(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}

	s.logger.Info("Analysis saved", "analysis_id", analysis.UID, "test_id", req.TestID)

	return analysis, nil
}

// List returns the caller's analyses most-recent first. The teacher scope is
// forced server-side; a client-supplied teacherId filter is ignored.
func (s *analysisService) List(ctx context.Context, filters repositories.AnalysisFilters, teacherID string) (*AnalysisListResponse, error) {
	filters.TeacherID = &teacherID

	analyses, total, err := s.repo.Analysis().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	return &AnalysisListResponse{Analyses: analyses, Total: total}, nil
}

// ImproveMaterial renders a plain-text improvement report from the latest
// analysis of the given test and material.
func (s *analysisService) ImproveMaterial(ctx context.Context, req *ImproveMaterialRequest, teacherID string) (*ImprovedMaterialDocument, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	_, material, err := s.loadOwnedPair(ctx, req.TestID, req.MaterialID, teacherID, "improve material")
	if err != nil {
		return nil, err
	}

	analysis, err := s.repo.Analysis().GetLatest(ctx, req.TestID, req.MaterialID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}

	content := renderImprovementReport(material, analysis)

	return &ImprovedMaterialDocument{
		FileName: sanitizeFileName(material.Title) + "-improvements.txt",
		Content:  content,
	}, nil
}

func (s *analysisService) loadOwnedPair(ctx context.Context, testUID, materialUID, teacherID, action string) (*models.Test, *models.StudyMaterial, error) {
	test, err := s.repo.Test().GetByUIDWithQuestions(ctx, testUID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrTestNotFound
		}
		return nil, nil, fmt.Errorf("failed to get test: %w", err)
	}
	if test.TeacherID != teacherID {
		return nil, nil, NewPermissionError(teacherID, testUID, "test", action, "not owned by teacher")
	}

	material, err := s.repo.Material().GetByUID(ctx, materialUID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrMaterialNotFound
		}
		return nil, nil, fmt.Errorf("failed to get material: %w", err)
	}

	// The material must be the one the test was authored from; an unrelated
	// material would be analyzed against answers it never produced.
	if test.MaterialID != material.UID {
		return nil, nil, ValidationErrors{{
			Field:   "materialId",
			Message: "does not match the test's study material",
			Value:   materialUID,
			Rule:    "material_match",
		}}
	}

	return test, material, nil
}

func (s *analysisService) buildAnalysisRequest(test *models.Test, material *models.StudyMaterial, submissions []models.TestSubmission) ai.AnalysisRequest {
	questions := make([]ai.QuestionInfo, 0, len(test.Questions))
	for _, q := range test.Questions {
		questions = append(questions, ai.QuestionInfo{
			ID:      q.UID,
			Text:    q.Text,
			Type:    string(q.Type),
			Options: q.Options,
			Points:  q.Points,
		})
	}

	students := make([]ai.StudentAnswers, 0, len(submissions))
	for _, sub := range submissions {
		answers, err := sub.NormalizedAnswers()
		if err != nil {
			s.logger.Warn("Skipping unreadable answers payload",
				"submission_id", sub.UID,
				"error", err)
		}
		students = append(students, ai.StudentAnswers{
			StudentName: sub.StudentName,
			Answers:     answers,
		})
	}

	return ai.AnalysisRequest{
		MaterialTitle:       material.Title,
		MaterialDescription: material.Description,
		MaterialContent:     material.Content,
		Questions:           questions,
		Submissions:         students,
	}
}

func (s *analysisService) publishAnalysisCompleted(ctx context.Context, analysis *models.AIAnalysis) {
	event := events.NewEvent(events.AnalysisCompleted, map[string]any{
		"analysisId": analysis.UID,
		"testId":     analysis.TestID,
		"teacherId":  analysis.TeacherID,
		"fallback":   analysis.Fallback,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish analysis.completed event",
			"analysis_id", analysis.UID,
			"error", err)
	}
}

// renderImprovementReport formats the analysis into the downloadable
// improvement document.
func renderImprovementReport(material *models.StudyMaterial, analysis *models.AIAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "IMPROVEMENT REPORT: %s\n", material.Title)
	fmt.Fprintf(&b, "Generated: %s\n", analysis.AnalysisDate.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Based on %d student submissions\n", analysis.SubmissionCount)
	if analysis.Fallback {
		b.WriteString("Note: automated analysis was unavailable for this run; contents are generic.\n")
	}
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	b.WriteString("STUDENT MISCONCEPTIONS\n\n")
	if len(analysis.Misconceptions) == 0 {
		b.WriteString("No misconceptions identified.\n\n")
	}
	for i, m := range analysis.Misconceptions {
		fmt.Fprintf(&b, "%d. %s [severity: %s]\n", i+1, m.Topic, m.Severity)
		fmt.Fprintf(&b, "   %s\n", m.Description)
		if len(m.AffectedStudents) > 0 {
			fmt.Fprintf(&b, "   Affected students: %s\n", strings.Join(m.AffectedStudents, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("CONTENT IMPROVEMENT GUIDANCE\n\n")
	if len(analysis.ContentGuidance) == 0 {
		b.WriteString("No content changes suggested.\n\n")
	}
	for i, g := range analysis.ContentGuidance {
		fmt.Fprintf(&b, "%d. Section: %s [priority: %s]\n", i+1, g.Section, g.Priority)
		for _, issue := range g.Issues {
			fmt.Fprintf(&b, "   Issue: %s\n", issue)
		}
		for _, imp := range g.SpecificImprovements {
			fmt.Fprintf(&b, "   Suggestion: %s\n", imp)
		}
		b.WriteString("\n")
	}

	b.WriteString("OVERALL INSIGHTS\n\n")
	for _, insight := range analysis.OverallInsights {
		fmt.Fprintf(&b, "- %s\n", insight)
	}

	return b.String()
}

var fileNameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func sanitizeFileName(name string) string {
	cleaned := fileNameUnsafe.ReplaceAllString(strings.TrimSpace(name), "-")
	cleaned = strings.Trim(cleaned, "-.")
	if cleaned == "" {
		cleaned = "material"
	}
	return cleaned
}
