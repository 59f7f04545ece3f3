package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openlearn/lms-service/internal/auth"
	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/repositories"
	"github.com/openlearn/lms-service/internal/services"
	"github.com/openlearn/lms-service/internal/utils"
)

type HandlerManager struct {
	authHandler       *AuthHandler
	courseHandler     *CourseHandler
	curriculumHandler *CurriculumHandler
	enrollmentHandler *EnrollmentHandler
	paymentHandler    *PaymentHandler
	adminHandler      *AdminHandler
	authMiddleware    *JWTAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	tokens *auth.TokenManager,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewJWTAuthMiddleware(tokens, userRepo)

	return &HandlerManager{
		authHandler:       NewAuthHandler(serviceManager.Auth(), logger),
		courseHandler:     NewCourseHandler(serviceManager.Course(), logger),
		curriculumHandler: NewCurriculumHandler(serviceManager.Curriculum(), logger),
		enrollmentHandler: NewEnrollmentHandler(serviceManager.Enrollment(), logger),
		paymentHandler:    NewPaymentHandler(serviceManager.Payment(), logger),
		adminHandler:      NewAdminHandler(serviceManager.User(), serviceManager.Course(), serviceManager.Report(), logger),
		authMiddleware:    authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes - no token required
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", hm.authHandler.Register)
			authRoutes.POST("/login", hm.authHandler.Login)
		}

		// Profile routes
		me := v1.Group("/me")
		me.Use(hm.authMiddleware.AuthMiddleware())
		{
			me.GET("", hm.authHandler.GetProfile)
			me.PUT("", hm.authHandler.UpdateProfile)
			me.GET("/courses", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.courseHandler.GetMyCourses)
			me.GET("/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.courseHandler.GetInstructorStats)
			me.GET("/enrollments", hm.enrollmentHandler.ListMyEnrollments)
		}

		// Course routes. Reads are public with optional identity; the
		// service layer decides visibility per caller.
		courses := v1.Group("/courses")
		{
			courses.GET("", hm.authMiddleware.OptionalAuthMiddleware(), hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.authMiddleware.OptionalAuthMiddleware(), hm.courseHandler.GetCourse)
			courses.GET("/:id/curriculum", hm.authMiddleware.OptionalAuthMiddleware(), hm.courseHandler.GetCourseWithCurriculum)
			courses.GET("/:id/modules", hm.authMiddleware.OptionalAuthMiddleware(), hm.curriculumHandler.ListModules)

			// Authoring - instructors and admins only
			courses.POST("", hm.authMiddleware.AuthMiddleware(), hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.courseHandler.CreateCourse)
			courses.PUT("/:id", hm.authMiddleware.AuthMiddleware(), hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", hm.authMiddleware.AuthMiddleware(), hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.courseHandler.DeleteCourse)
			courses.GET("/:id/stats", hm.authMiddleware.AuthMiddleware(), hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.courseHandler.GetCourseStats)

			// Curriculum authoring
			courses.POST("/:id/modules", hm.authMiddleware.AuthMiddleware(), hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.curriculumHandler.AddModule)
			courses.PUT("/:id/modules/:module_id", hm.authMiddleware.AuthMiddleware(), hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.curriculumHandler.UpdateModule)
			courses.DELETE("/:id/modules/:module_id", hm.authMiddleware.AuthMiddleware(), hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.curriculumHandler.DeleteModule)
			courses.POST("/:id/modules/:module_id/lessons", hm.authMiddleware.AuthMiddleware(), hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.curriculumHandler.AddLesson)
			courses.PUT("/:id/lessons/:lesson_id", hm.authMiddleware.AuthMiddleware(), hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.curriculumHandler.UpdateLesson)
			courses.DELETE("/:id/lessons/:lesson_id", hm.authMiddleware.AuthMiddleware(), hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.curriculumHandler.DeleteLesson)
			courses.PUT("/:id/curriculum/reorder", hm.authMiddleware.AuthMiddleware(), hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.curriculumHandler.ReorderCurriculum)

			// Lesson content - enrollment gated in the service layer
			courses.GET("/:id/lessons/:lesson_id", hm.authMiddleware.AuthMiddleware(), hm.curriculumHandler.GetLesson)

			// Enrollment and progress
			courses.POST("/:id/enroll", hm.authMiddleware.AuthMiddleware(), hm.enrollmentHandler.Enroll)
			courses.POST("/:id/lessons/:lesson_id/complete", hm.authMiddleware.AuthMiddleware(), hm.enrollmentHandler.CompleteLesson)

			// Roster export - owner or admin, decided in the service layer
			courses.GET("/:id/roster.xlsx", hm.authMiddleware.AuthMiddleware(), hm.adminHandler.ExportCourseRoster)
		}

		// Enrollment routes
		enrollments := v1.Group("/enrollments")
		enrollments.Use(hm.authMiddleware.AuthMiddleware())
		{
			enrollments.GET("", hm.enrollmentHandler.ListMyEnrollments)
			enrollments.GET("/:id", hm.enrollmentHandler.GetEnrollment)
		}

		// Payment routes
		payments := v1.Group("/payments")
		{
			payments.GET("/key", hm.paymentHandler.GetKey)
			payments.POST("/checkout", hm.authMiddleware.AuthMiddleware(), hm.paymentHandler.Checkout)
			payments.POST("/verify", hm.authMiddleware.AuthMiddleware(), hm.paymentHandler.Verify)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(hm.authMiddleware.AuthMiddleware(), hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			admin.GET("/users", hm.adminHandler.ListUsers)
			admin.GET("/instructors", hm.adminHandler.ListInstructors)
			admin.PUT("/users/:id/block", hm.adminHandler.SetUserBlocked)
			admin.GET("/courses", hm.adminHandler.ListAllCourses)
			admin.PUT("/courses/:id/approve", hm.adminHandler.SetCourseApproved)
			admin.GET("/courses/:id/roster.xlsx", hm.adminHandler.ExportCourseRoster)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "lms-service",
		})
	})
}
