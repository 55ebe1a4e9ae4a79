package models

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TeacherStats backs the teacher dashboard.
type TeacherStats struct {
	MaterialCount   int64            `json:"materialCount"`
	TestCount       int64            `json:"testCount"`
	SubmissionCount int64            `json:"submissionCount"`
	AnalysisCount   int64            `json:"analysisCount"`
	RecentActivity  []TestSubmission `json:"recentActivity"`
}

// StudentStats backs the student dashboard.
type StudentStats struct {
	AvailableTests int64 `json:"availableTests"`
	CompletedTests int64 `json:"completedTests"`
}
