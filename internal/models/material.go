package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudyMaterial is an uploaded teaching document. Content holds the extracted
// text used for AI analysis; it may be empty when extraction has not run yet.
type StudyMaterial struct {
	ID  uint   `json:"-" gorm:"primaryKey"`
	UID string `json:"id" gorm:"size:36;uniqueIndex;not null"`

	Title       string `json:"title" gorm:"size:255;not null"`
	Description string `json:"description" gorm:"type:text"`
	Content     string `json:"content" gorm:"type:text"`

	FileName string `json:"fileName" gorm:"size:255"`
	FileType string `json:"fileType" gorm:"size:100"`
	FileSize int64  `json:"fileSize"`

	TeacherID string `json:"teacherId" gorm:"size:36;not null;index"`

	// IsUpdated marks that the material changed after creation, so existing
	// analyses may be stale.
	IsUpdated bool       `json:"isUpdated" gorm:"default:false"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func (StudyMaterial) TableName() string { return "study_materials" }

func (m *StudyMaterial) BeforeCreate(tx *gorm.DB) error {
	if m.UID == "" {
		m.UID = uuid.New().String()
	}
	return nil
}
