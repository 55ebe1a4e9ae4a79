package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// StudentMisconception is one misconception cluster found across submissions.
type StudentMisconception struct {
	Topic            string   `json:"topic"`
	Description      string   `json:"description"`
	AffectedStudents []string `json:"affectedStudents"`
	Severity         Severity `json:"severity"`
	Examples         []string `json:"examples,omitempty"`
}

// ContentGuidance points at a section of the study material that should be
// improved, with concrete suggestions.
type ContentGuidance struct {
	PageNumber           *int     `json:"pageNumber,omitempty"`
	Section              string   `json:"section"`
	CurrentContent       string   `json:"currentContent,omitempty"`
	Issues               []string `json:"issues"`
	SpecificImprovements []string `json:"specificImprovements"`
	Priority             Priority `json:"priority"`
}

// AIAnalysis is a persisted analysis run over one test's submissions.
// Fallback marks records synthesized locally after the AI response could not
// be parsed; consumers can decide whether to trust them.
type AIAnalysis struct {
	ID  uint   `json:"-" gorm:"primaryKey"`
	UID string `json:"id" gorm:"size:36;uniqueIndex;not null"`

	TestID     string `json:"testId" gorm:"size:36;not null;index"`
	MaterialID string `json:"materialId" gorm:"size:36;not null;index"`
	TeacherID  string `json:"teacherId" gorm:"size:36;not null;index"`

	Misconceptions  datatypes.JSONSlice[StudentMisconception] `json:"misconceptions"`
	ContentGuidance datatypes.JSONSlice[ContentGuidance]      `json:"contentGuidance"`
	OverallInsights datatypes.JSONSlice[string]               `json:"overallInsights"`

	SubmissionCount int  `json:"submissionCount"`
	Fallback        bool `json:"fallback" gorm:"default:false"`

	AnalysisDate time.Time `json:"analysisDate" gorm:"index"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (AIAnalysis) TableName() string { return "ai_analyses" }

func (a *AIAnalysis) BeforeCreate(tx *gorm.DB) error {
	if a.UID == "" {
		a.UID = uuid.New().String()
	}
	if a.AnalysisDate.IsZero() {
		a.AnalysisDate = time.Now()
	}
	return nil
}
