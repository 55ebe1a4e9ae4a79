package repositories

import "context"

// Repository bundles all entity repositories behind one dependency.
type Repository interface {
	User() UserRepository
	Material() MaterialRepository
	Test() TestRepository
	Submission() SubmissionRepository
	Analysis() AnalysisRepository
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
