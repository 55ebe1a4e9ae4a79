package models

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
	SubmissionPending   SubmissionStatus = "pending"
)

// SubmissionAnswer is the canonical answer shape: one entry per answered
// question, in question order.
type SubmissionAnswer struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

// TestSubmission records one student's single allowed submission for a test.
// The compound unique index is the storage-level submission guard; the
// service layer treats its violation as the authoritative duplicate signal.
type TestSubmission struct {
	ID  uint   `json:"-" gorm:"primaryKey"`
	UID string `json:"id" gorm:"size:36;uniqueIndex;not null"`

	TestID    string `json:"testId" gorm:"size:36;not null;uniqueIndex:idx_submission_test_student"`
	StudentID string `json:"studentId" gorm:"size:36;not null;uniqueIndex:idx_submission_test_student"`

	StudentName string `json:"studentName" gorm:"size:255"`

	// Answers keeps the raw payload. Older clients sent a map keyed by
	// question id or index; newer ones send an ordered list. Use
	// NormalizedAnswers to consume.
	Answers datatypes.JSON `json:"answers"`

	Score    float64          `json:"score" gorm:"default:0"`
	MaxScore int              `json:"maxScore" gorm:"default:0"`
	Status   SubmissionStatus `json:"status" gorm:"size:20;not null;default:submitted"`

	TimeSpent   int       `json:"timeSpent"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func (TestSubmission) TableName() string { return "test_submissions" }

func (s *TestSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.UID == "" {
		s.UID = uuid.New().String()
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now()
	}
	return nil
}

// NormalizedAnswers converts the stored payload into the canonical list
// shape. A JSON array unmarshals directly; a keyed map (legacy shape) is
// converted with keys sorted for determinism. Anything else is an error.
func (s *TestSubmission) NormalizedAnswers() ([]SubmissionAnswer, error) {
	if len(s.Answers) == 0 {
		return nil, nil
	}

	var list []SubmissionAnswer
	if err := json.Unmarshal(s.Answers, &list); err == nil {
		return list, nil
	}

	var keyed map[string]string
	if err := json.Unmarshal(s.Answers, &keyed); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list = make([]SubmissionAnswer, 0, len(keys))
	for _, k := range keys {
		list = append(list, SubmissionAnswer{QuestionID: k, Answer: keyed[k]})
	}
	return list, nil
}
