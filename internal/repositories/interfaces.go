package repositories

import (
	"context"
	"time"

	"github.com/classlens/ai-assist/internal/models"
)

// ===== FILTERS =====

type MaterialFilters struct {
	TeacherID *string
	IsUpdated *bool
	Search    *string

	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

type TestFilters struct {
	TeacherID  *string
	MaterialID *string
	Status     *models.TestStatus

	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

type SubmissionFilters struct {
	TestID    *string
	StudentID *string
	Status    *models.SubmissionStatus
	DateFrom  *time.Time
	DateTo    *time.Time

	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

type AnalysisFilters struct {
	TestID    *string
	TeacherID *string

	Limit  int
	Offset int
}

type UserFilters struct {
	Role   *models.UserRole
	Search *string

	Limit  int
	Offset int
}

// ===== REPOSITORY INTERFACES =====

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUID(ctx context.Context, uid string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filters UserFilters) ([]models.User, int64, error)
}

type MaterialRepository interface {
	Create(ctx context.Context, material *models.StudyMaterial) error
	GetByUID(ctx context.Context, uid string) (*models.StudyMaterial, error)
	Update(ctx context.Context, material *models.StudyMaterial) error
	UpdateFields(ctx context.Context, uid string, fields map[string]interface{}) error
	Delete(ctx context.Context, uid string) error
	List(ctx context.Context, filters MaterialFilters) ([]models.StudyMaterial, int64, error)
	ExistsByUID(ctx context.Context, uid string) (bool, error)
}

type TestRepository interface {
	Create(ctx context.Context, test *models.Test) error
	GetByUID(ctx context.Context, uid string) (*models.Test, error)
	GetByUIDWithQuestions(ctx context.Context, uid string) (*models.Test, error)
	Update(ctx context.Context, test *models.Test) error
	UpdateStatus(ctx context.Context, uid string, status models.TestStatus) error
	Delete(ctx context.Context, uid string) error
	List(ctx context.Context, filters TestFilters) ([]models.Test, int64, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.TestSubmission) error
	GetByUID(ctx context.Context, uid string) (*models.TestSubmission, error)
	GetByTestAndStudent(ctx context.Context, testUID, studentUID string) (*models.TestSubmission, error)
	List(ctx context.Context, filters SubmissionFilters) ([]models.TestSubmission, int64, error)
	ListByTest(ctx context.Context, testUID string) ([]models.TestSubmission, error)
	CountByTest(ctx context.Context, testUID string) (int64, error)
}

type AnalysisRepository interface {
	Create(ctx context.Context, analysis *models.AIAnalysis) error
	GetByUID(ctx context.Context, uid string) (*models.AIAnalysis, error)
	GetLatest(ctx context.Context, testUID, materialUID string) (*models.AIAnalysis, error)
	List(ctx context.Context, filters AnalysisFilters) ([]models.AIAnalysis, int64, error)
}

type DashboardRepository interface {
	TeacherStats(ctx context.Context, teacherUID string) (*models.TeacherStats, error)
	StudentStats(ctx context.Context, studentUID string) (*models.StudentStats, error)
}
