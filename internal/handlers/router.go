package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/services"
	"github.com/classlens/ai-assist/internal/utils"
)

type HandlerManager struct {
	authHandler       *AuthHandler
	materialHandler   *MaterialHandler
	testHandler       *TestHandler
	submissionHandler *SubmissionHandler
	sessionHandler    *SessionHandler
	analysisHandler   *AnalysisHandler
	dashboardHandler  *DashboardHandler
	authMiddleware    *TokenAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
) *HandlerManager {
	authMiddleware := NewTokenAuthMiddleware(serviceManager.Auth(), logger)

	return &HandlerManager{
		authHandler:       NewAuthHandler(serviceManager.Auth(), logger),
		materialHandler:   NewMaterialHandler(serviceManager.Material(), logger),
		testHandler:       NewTestHandler(serviceManager.Test(), logger),
		submissionHandler: NewSubmissionHandler(serviceManager.Submission(), serviceManager.Export(), logger),
		sessionHandler:    NewSessionHandler(serviceManager.Session(), logger),
		analysisHandler:   NewAnalysisHandler(serviceManager.Analysis(), logger),
		dashboardHandler:  NewDashboardHandler(serviceManager.Dashboard(), logger),
		authMiddleware:    authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Public auth routes
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/signup", hm.authHandler.Signup)
		auth.POST("/login", hm.authHandler.Login)
	}

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		v1.POST("/auth/logout", hm.authHandler.Logout)

		// Study material routes
		materials := v1.Group("/study-materials")
		{
			materials.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.materialHandler.CreateMaterial)
			materials.PATCH("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.materialHandler.UpdateMaterial)
			materials.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.materialHandler.ReplaceMaterial)
			materials.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.materialHandler.DeleteMaterial)

			// View materials - all authenticated users
			materials.GET("", hm.materialHandler.ListMaterials)
			materials.GET("/:id", hm.materialHandler.GetMaterial)
		}

		// Test routes
		tests := v1.Group("/tests")
		{
			tests.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.testHandler.CreateTest)
			tests.PUT("/:id/status", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.testHandler.UpdateTestStatus)
			tests.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.testHandler.DeleteTest)

			tests.GET("", hm.testHandler.ListTests)
			tests.GET("/:id", hm.testHandler.GetTest)
		}

		// Submission routes
		submissions := v1.Group("/test-submissions")
		{
			submissions.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.submissionHandler.CreateSubmission)
			submissions.GET("/check", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.submissionHandler.CheckSubmission)
			submissions.GET("/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.submissionHandler.ExportSubmissions)
			submissions.GET("", hm.submissionHandler.ListSubmissions)
			submissions.GET("/:id", hm.submissionHandler.GetSubmission)
		}

		// Timed test-taking session routes - students only
		sessions := v1.Group("/test-sessions")
		sessions.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent))
		{
			sessions.POST("/start", hm.sessionHandler.StartSession)
			sessions.POST("/:test_id/answer", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:test_id/navigate", hm.sessionHandler.Navigate)
			sessions.GET("/:test_id/state", hm.sessionHandler.GetState)
			sessions.POST("/:test_id/submit", hm.sessionHandler.SubmitSession)
		}

		// AI analysis routes - teachers only
		analysis := v1.Group("")
		analysis.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher))
		{
			analysis.POST("/analyze-test", hm.analysisHandler.AnalyzeTest)
			analysis.POST("/ai-analysis", hm.analysisHandler.SaveAnalysis)
			analysis.GET("/ai-analysis", hm.analysisHandler.ListAnalyses)
			analysis.POST("/ai-improve-material", hm.analysisHandler.ImproveMaterial)
		}

		// Dashboard routes
		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/teacher", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.dashboardHandler.GetTeacherDashboard)
			dashboard.GET("/student", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.dashboardHandler.GetStudentDashboard)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "ai-assist",
		})
	})
}
