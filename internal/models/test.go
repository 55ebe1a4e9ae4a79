package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TestStatus string

const (
	TestActive    TestStatus = "active"
	TestInactive  TestStatus = "inactive"
	TestCompleted TestStatus = "completed"
)

func (s TestStatus) Valid() bool {
	return s == TestActive || s == TestInactive || s == TestCompleted
}

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionShortAnswer    QuestionType = "short-answer"
	QuestionEssay          QuestionType = "essay"
)

func (t QuestionType) Valid() bool {
	return t == QuestionMultipleChoice || t == QuestionShortAnswer || t == QuestionEssay
}

// Question belongs to exactly one test. Position preserves authoring order,
// which the analysis prompt and session navigation both depend on.
type Question struct {
	ID  uint   `json:"-" gorm:"primaryKey"`
	UID string `json:"id" gorm:"size:36;uniqueIndex;not null"`

	TestID   uint `json:"-" gorm:"not null;index"`
	Position int  `json:"-" gorm:"not null"`

	Text    string                      `json:"question" gorm:"type:text;not null"`
	Type    QuestionType                `json:"type" gorm:"size:30;not null"`
	Options datatypes.JSONSlice[string] `json:"options,omitempty"`
	Points  int                         `json:"points" gorm:"default:1"`
}

func (Question) TableName() string { return "questions" }

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.UID == "" {
		q.UID = uuid.New().String()
	}
	return nil
}

// Test is a set of questions attached to a study material. Duration is in
// seconds and bounds the test-taking session window.
type Test struct {
	ID  uint   `json:"-" gorm:"primaryKey"`
	UID string `json:"id" gorm:"size:36;uniqueIndex;not null"`

	Title       string `json:"title" gorm:"size:255;not null"`
	Description string `json:"description" gorm:"type:text"`

	MaterialID string `json:"materialId" gorm:"size:36;not null;index"`
	TeacherID  string `json:"teacherId" gorm:"size:36;not null;index"`

	Status   TestStatus `json:"status" gorm:"size:20;not null;default:active"`
	Duration int        `json:"duration" gorm:"default:3600"`

	Questions []Question `json:"questions" gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Test) TableName() string { return "tests" }

func (t *Test) BeforeCreate(tx *gorm.DB) error {
	if t.UID == "" {
		t.UID = uuid.New().String()
	}
	return nil
}

// TotalPoints sums question points for export and dashboards.
func (t *Test) TotalPoints() int {
	total := 0
	for _, q := range t.Questions {
		total += q.Points
	}
	return total
}
