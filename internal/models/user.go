package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

func (r UserRole) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// User is a local account record. Passwords are stored as bcrypt hashes and
// never serialized.
type User struct {
	ID  uint   `json:"-" gorm:"primaryKey"`
	UID string `json:"id" gorm:"size:36;uniqueIndex;not null"`

	Name         string   `json:"name" gorm:"size:255;not null"`
	Email        string   `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string   `json:"-" gorm:"size:100;not null"`
	Role         UserRole `json:"role" gorm:"size:20;not null;index"`

	// Teacher profile fields
	Institution string `json:"institution,omitempty" gorm:"size:255"`
	Subject     string `json:"subject,omitempty" gorm:"size:255"`

	// Student profile fields
	Grade         string `json:"grade,omitempty" gorm:"size:50"`
	StudentNumber string `json:"studentId,omitempty" gorm:"size:50"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UID == "" {
		u.UID = uuid.New().String()
	}
	return nil
}
