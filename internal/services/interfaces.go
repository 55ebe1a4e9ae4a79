package services

import (
	"context"
	"time"

	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
	"github.com/classlens/ai-assist/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use validator request types
type ValidationErrors = validator.ValidationErrors
type SignupRequest = validator.SignupRequest
type LoginRequest = validator.LoginRequest
type CreateMaterialRequest = validator.MaterialCreateRequest
type UpdateMaterialRequest = validator.MaterialUpdateRequest
type CreateTestRequest = validator.TestCreateRequest
type UpdateTestStatusRequest = validator.TestStatusUpdateRequest
type CreateSubmissionRequest = validator.SubmissionCreateRequest
type StartSessionRequest = validator.SessionStartRequest
type SessionAnswerRequest = validator.SessionAnswerRequest
type SessionNavigateRequest = validator.SessionNavigateRequest
type AnalyzeTestRequest = validator.AnalyzeTestRequest
type CreateAnalysisRequest = validator.AnalysisCreateRequest
type ImproveMaterialRequest = validator.ImproveMaterialRequest

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type MaterialListResponse struct {
	Materials []models.StudyMaterial `json:"studyMaterials"`
	Total     int64                  `json:"total"`
}

type TestListResponse struct {
	Tests []models.Test `json:"tests"`
	Total int64         `json:"total"`
}

type SubmissionListResponse struct {
	Submissions []models.TestSubmission `json:"submissions"`
	Total       int64                   `json:"total"`
}

type AnalysisListResponse struct {
	Analyses []models.AIAnalysis `json:"analyses"`
	Total    int64               `json:"total"`
}

// SessionState is the client view of an open test-taking session.
type SessionState struct {
	TestID          string            `json:"testId"`
	StudentID       string            `json:"studentId"`
	StartedAt       time.Time         `json:"startedAt"`
	Duration        int               `json:"duration"`
	RemainingTime   int               `json:"remainingTime"`
	CurrentQuestion int               `json:"currentQuestion"`
	Answers         map[string]string `json:"answers"`
	QuestionCount   int               `json:"questionCount"`
}

// SessionSubmitResult reports how a session ended.
type SessionSubmitResult struct {
	Submission *models.TestSubmission `json:"submission"`
	EndReason  string                 `json:"endReason"`
	TimedOut   bool                   `json:"timedOut"`
}

// ImprovedMaterialDocument is the rendered improvement report.
type ImprovedMaterialDocument struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"`
}

// ExportResult is a rendered spreadsheet ready for download.
type ExportResult struct {
	FileName string
	Data     []byte
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, token string) error
	ResolveToken(ctx context.Context, token string) (*models.User, error)
}

type MaterialService interface {
	Create(ctx context.Context, req *CreateMaterialRequest, teacherID string) (*models.StudyMaterial, error)
	GetByID(ctx context.Context, uid string, userID string) (*models.StudyMaterial, error)
	List(ctx context.Context, filters repositories.MaterialFilters, userID string, role models.UserRole) (*MaterialListResponse, error)
	Update(ctx context.Context, uid string, req *UpdateMaterialRequest, teacherID string) (*models.StudyMaterial, error)
	Replace(ctx context.Context, uid string, req *CreateMaterialRequest, teacherID string) (*models.StudyMaterial, error)
	Delete(ctx context.Context, uid string, teacherID string) error
}

type TestService interface {
	Create(ctx context.Context, req *CreateTestRequest, teacherID string) (*models.Test, error)
	GetByID(ctx context.Context, uid string) (*models.Test, error)
	List(ctx context.Context, filters repositories.TestFilters, userID string, role models.UserRole) (*TestListResponse, error)
	UpdateStatus(ctx context.Context, uid string, req *UpdateTestStatusRequest, teacherID string) (*models.Test, error)
	Delete(ctx context.Context, uid string, teacherID string) error
}

type SubmissionService interface {
	Create(ctx context.Context, req *CreateSubmissionRequest, studentID, studentName string) (*models.TestSubmission, error)
	GetByID(ctx context.Context, uid string) (*models.TestSubmission, error)
	ListByTest(ctx context.Context, testUID string, teacherID string) (*SubmissionListResponse, error)
	ListByStudent(ctx context.Context, studentID string) (*SubmissionListResponse, error)
	HasSubmitted(ctx context.Context, testUID, studentID string) (bool, error)
}

type SessionService interface {
	Start(ctx context.Context, req *StartSessionRequest, studentID string) (*SessionState, error)
	Answer(ctx context.Context, testUID string, req *SessionAnswerRequest, studentID string) (*SessionState, error)
	Navigate(ctx context.Context, testUID string, req *SessionNavigateRequest, studentID string) (*SessionState, error)
	State(ctx context.Context, testUID string, studentID string) (*SessionState, error)
	Submit(ctx context.Context, testUID string, studentID, studentName string) (*SessionSubmitResult, error)
}

type AnalysisService interface {
	Analyze(ctx context.Context, req *AnalyzeTestRequest, teacherID string) (*models.AIAnalysis, error)
	Save(ctx context.Context, req *CreateAnalysisRequest, teacherID string) (*models.AIAnalysis, error)
	List(ctx context.Context, filters repositories.AnalysisFilters, teacherID string) (*AnalysisListResponse, error)
	ImproveMaterial(ctx context.Context, req *ImproveMaterialRequest, teacherID string) (*ImprovedMaterialDocument, error)
}

type DashboardService interface {
	TeacherDashboard(ctx context.Context, teacherID string) (*models.TeacherStats, error)
	StudentDashboard(ctx context.Context, studentID string) (*models.StudentStats, error)
}

type ExportService interface {
	ExportSubmissions(ctx context.Context, testUID string, teacherID string) (*ExportResult, error)
}

// ServiceManager provides access to all services
type ServiceManager interface {
	Auth() AuthService
	Material() MaterialService
	Test() TestService
	Submission() SubmissionService
	Session() SessionService
	Analysis() AnalysisService
	Dashboard() DashboardService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
