package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classlens/ai-assist/internal/ai"
	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
)

// fakeRepository is an in-memory repositories.Repository used across the
// service tests. Duplicate and not-found conditions are reported with the
// same gorm sentinels the real store produces.
type fakeRepository struct {
	users       *fakeUserRepo
	materials   *fakeMaterialRepo
	tests       *fakeTestRepo
	submissions *fakeSubmissionRepo
	analyses    *fakeAnalysisRepo
	dashboard   *fakeDashboardRepo
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:       &fakeUserRepo{byUID: map[string]*models.User{}},
		materials:   &fakeMaterialRepo{byUID: map[string]*models.StudyMaterial{}},
		tests:       &fakeTestRepo{byUID: map[string]*models.Test{}},
		submissions: &fakeSubmissionRepo{byUID: map[string]*models.TestSubmission{}},
		analyses:    &fakeAnalysisRepo{},
		dashboard:   &fakeDashboardRepo{},
	}
}

func (r *fakeRepository) User() repositories.UserRepository             { return r.users }
func (r *fakeRepository) Material() repositories.MaterialRepository    { return r.materials }
func (r *fakeRepository) Test() repositories.TestRepository            { return r.tests }
func (r *fakeRepository) Submission() repositories.SubmissionRepository { return r.submissions }
func (r *fakeRepository) Analysis() repositories.AnalysisRepository    { return r.analyses }
func (r *fakeRepository) Dashboard() repositories.DashboardRepository  { return r.dashboard }

func (r *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}
func (r *fakeRepository) Ping(ctx context.Context) error { return nil }
func (r *fakeRepository) Close() error                   { return nil }

// ----- users -----

type fakeUserRepo struct {
	byUID map[string]*models.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range f.byUID {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UID == "" {
		user.UID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	f.byUID[user.UID] = user
	return nil
}

func (f *fakeUserRepo) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	if u, ok := f.byUID[uid]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.byUID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (f *fakeUserRepo) List(ctx context.Context, filters repositories.UserFilters) ([]models.User, int64, error) {
	out := make([]models.User, 0, len(f.byUID))
	for _, u := range f.byUID {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

// ----- materials -----

type fakeMaterialRepo struct {
	byUID map[string]*models.StudyMaterial
}

func (f *fakeMaterialRepo) Create(ctx context.Context, material *models.StudyMaterial) error {
	if material.UID == "" {
		material.UID = uuid.NewString()
	}
	material.CreatedAt = time.Now()
	f.byUID[material.UID] = material
	return nil
}

func (f *fakeMaterialRepo) GetByUID(ctx context.Context, uid string) (*models.StudyMaterial, error) {
	if m, ok := f.byUID[uid]; ok {
		copy := *m
		return &copy, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMaterialRepo) Update(ctx context.Context, material *models.StudyMaterial) error {
	if _, ok := f.byUID[material.UID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.byUID[material.UID] = material
	return nil
}

func (f *fakeMaterialRepo) UpdateFields(ctx context.Context, uid string, fields map[string]interface{}) error {
	m, ok := f.byUID[uid]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range fields {
		switch key {
		case "title":
			m.Title = value.(string)
		case "description":
			m.Description = value.(string)
		case "content":
			m.Content = value.(string)
		case "file_name":
			m.FileName = value.(string)
		case "file_type":
			m.FileType = value.(string)
		case "file_size":
			m.FileSize = value.(int64)
		case "is_updated":
			m.IsUpdated = value.(bool)
		case "updated_at":
			t := value.(time.Time)
			m.UpdatedAt = &t
		}
	}
	return nil
}

func (f *fakeMaterialRepo) Delete(ctx context.Context, uid string) error {
	if _, ok := f.byUID[uid]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.byUID, uid)
	return nil
}

func (f *fakeMaterialRepo) List(ctx context.Context, filters repositories.MaterialFilters) ([]models.StudyMaterial, int64, error) {
	out := make([]models.StudyMaterial, 0, len(f.byUID))
	for _, m := range f.byUID {
		if filters.TeacherID != nil && m.TeacherID != *filters.TeacherID {
			continue
		}
		out = append(out, *m)
	}
	return out, int64(len(out)), nil
}

func (f *fakeMaterialRepo) ExistsByUID(ctx context.Context, uid string) (bool, error) {
	_, ok := f.byUID[uid]
	return ok, nil
}

// ----- tests -----

type fakeTestRepo struct {
	byUID map[string]*models.Test
}

func (f *fakeTestRepo) Create(ctx context.Context, test *models.Test) error {
	if test.UID == "" {
		test.UID = uuid.NewString()
	}
	for i := range test.Questions {
		if test.Questions[i].UID == "" {
			test.Questions[i].UID = uuid.NewString()
		}
	}
	test.CreatedAt = time.Now()
	f.byUID[test.UID] = test
	return nil
}

func (f *fakeTestRepo) GetByUID(ctx context.Context, uid string) (*models.Test, error) {
	if t, ok := f.byUID[uid]; ok {
		copy := *t
		return &copy, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTestRepo) GetByUIDWithQuestions(ctx context.Context, uid string) (*models.Test, error) {
	return f.GetByUID(ctx, uid)
}

func (f *fakeTestRepo) Update(ctx context.Context, test *models.Test) error {
	if _, ok := f.byUID[test.UID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.byUID[test.UID] = test
	return nil
}

func (f *fakeTestRepo) UpdateStatus(ctx context.Context, uid string, status models.TestStatus) error {
	t, ok := f.byUID[uid]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeTestRepo) Delete(ctx context.Context, uid string) error {
	if _, ok := f.byUID[uid]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.byUID, uid)
	return nil
}

func (f *fakeTestRepo) List(ctx context.Context, filters repositories.TestFilters) ([]models.Test, int64, error) {
	out := make([]models.Test, 0, len(f.byUID))
	for _, t := range f.byUID {
		if filters.TeacherID != nil && t.TeacherID != *filters.TeacherID {
			continue
		}
		if filters.Status != nil && t.Status != *filters.Status {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

// ----- submissions -----

type fakeSubmissionRepo struct {
	byUID map[string]*models.TestSubmission

	// failCreateWith forces Create to fail, simulating a racing writer
	// hitting the unique index.
	failCreateWith error
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.TestSubmission) error {
	if f.failCreateWith != nil {
		return f.failCreateWith
	}
	for _, s := range f.byUID {
		if s.TestID == submission.TestID && s.StudentID == submission.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	if submission.UID == "" {
		submission.UID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now()
	}
	f.byUID[submission.UID] = submission
	return nil
}

func (f *fakeSubmissionRepo) GetByUID(ctx context.Context, uid string) (*models.TestSubmission, error) {
	if s, ok := f.byUID[uid]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) GetByTestAndStudent(ctx context.Context, testUID, studentUID string) (*models.TestSubmission, error) {
	for _, s := range f.byUID {
		if s.TestID == testUID && s.StudentID == studentUID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) List(ctx context.Context, filters repositories.SubmissionFilters) ([]models.TestSubmission, int64, error) {
	out := make([]models.TestSubmission, 0, len(f.byUID))
	for _, s := range f.byUID {
		if filters.TestID != nil && s.TestID != *filters.TestID {
			continue
		}
		if filters.StudentID != nil && s.StudentID != *filters.StudentID {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (f *fakeSubmissionRepo) ListByTest(ctx context.Context, testUID string) ([]models.TestSubmission, error) {
	subs, _, err := f.List(ctx, repositories.SubmissionFilters{TestID: &testUID})
	if err != nil {
		return nil, err
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.Before(subs[j].SubmittedAt) })
	return subs, nil
}

func (f *fakeSubmissionRepo) CountByTest(ctx context.Context, testUID string) (int64, error) {
	subs, err := f.ListByTest(ctx, testUID)
	if err != nil {
		return 0, err
	}
	return int64(len(subs)), nil
}

// ----- analyses -----

type fakeAnalysisRepo struct {
	records []*models.AIAnalysis

	// lastFilters captures the filters of the most recent List call.
	lastFilters repositories.AnalysisFilters
}

func (f *fakeAnalysisRepo) Create(ctx context.Context, analysis *models.AIAnalysis) error {
	if analysis.UID == "" {
		analysis.UID = uuid.NewString()
	}
	if analysis.AnalysisDate.IsZero() {
		analysis.AnalysisDate = time.Now()
	}
	f.records = append(f.records, analysis)
	return nil
}

func (f *fakeAnalysisRepo) GetByUID(ctx context.Context, uid string) (*models.AIAnalysis, error) {
	for _, a := range f.records {
		if a.UID == uid {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAnalysisRepo) GetLatest(ctx context.Context, testUID, materialUID string) (*models.AIAnalysis, error) {
	var latest *models.AIAnalysis
	for _, a := range f.records {
		if a.TestID != testUID || a.MaterialID != materialUID {
			continue
		}
		if latest == nil || a.AnalysisDate.After(latest.AnalysisDate) {
			latest = a
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (f *fakeAnalysisRepo) List(ctx context.Context, filters repositories.AnalysisFilters) ([]models.AIAnalysis, int64, error) {
	f.lastFilters = filters
	out := make([]models.AIAnalysis, 0, len(f.records))
	for _, a := range f.records {
		if filters.TestID != nil && a.TestID != *filters.TestID {
			continue
		}
		if filters.TeacherID != nil && a.TeacherID != *filters.TeacherID {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AnalysisDate.After(out[j].AnalysisDate) })
	return out, int64(len(out)), nil
}

// ----- dashboard -----

type fakeDashboardRepo struct{}

func (f *fakeDashboardRepo) TeacherStats(ctx context.Context, teacherUID string) (*models.TeacherStats, error) {
	return &models.TeacherStats{}, nil
}

func (f *fakeDashboardRepo) StudentStats(ctx context.Context, studentUID string) (*models.StudentStats, error) {
	return &models.StudentStats{}, nil
}

// ----- analyzer -----

// fakeAnalyzer records calls and returns a canned result.
type fakeAnalyzer struct {
	result *ai.AnalysisResult
	err    error
	calls  int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req ai.AnalysisRequest) (*ai.AnalysisResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
