package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/repositories"
	"github.com/openlearn/lms-service/internal/services"
	"github.com/openlearn/lms-service/internal/utils"
	"github.com/openlearn/lms-service/internal/validator"
)

// AdminHandler serves the moderation surface: user management, course
// approval, and roster exports.
type AdminHandler struct {
	BaseHandler
	userService   services.UserService
	courseService services.CourseService
	reportService services.ReportService
}

func NewAdminHandler(userService services.UserService, courseService services.CourseService, reportService services.ReportService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:   NewBaseHandler(logger),
		userService:   userService,
		courseService: courseService,
		reportService: reportService,
	}
}

// ListUsers lists accounts with optional role and block filters
func (h *AdminHandler) ListUsers(c *gin.Context) {
	filters := repositories.UserFilters{Limit: 20}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			filters.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filters.Offset = n
		}
	}
	if v := c.Query("role"); v != "" {
		role := models.UserRole(v)
		filters.Role = &role
	}
	if v := c.Query("blocked"); v != "" {
		blocked := v == "true"
		filters.IsBlocked = &blocked
	}

	resp, err := h.userService.List(c.Request.Context(), filters, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListInstructors lists instructor accounts for the admin console
func (h *AdminHandler) ListInstructors(c *gin.Context) {
	role := models.RoleInstructor
	filters := repositories.UserFilters{Role: &role, Limit: 100}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filters.Offset = n
		}
	}

	resp, err := h.userService.List(c.Request.Context(), filters, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SetUserBlocked toggles the moderation flag on an account
func (h *AdminHandler) SetUserBlocked(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req validator.BlockUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.userService.SetBlocked(c.Request.Context(), id, req.Blocked, OptionalUserFromContext(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": id, "blocked": req.Blocked})
}

// ListAllCourses lists every course, drafts and deleted included
func (h *AdminHandler) ListAllCourses(c *gin.Context) {
	filters := parseCourseFilters(c)
	if v := c.Query("approved"); v != "" {
		approved := v == "true"
		filters.IsApproved = &approved
	}

	resp, err := h.courseService.AdminList(c.Request.Context(), filters, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SetCourseApproved flips the catalog visibility gate on a course
func (h *AdminHandler) SetCourseApproved(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req validator.ApproveCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.courseService.SetApproved(c.Request.Context(), id, req.Approved, OptionalUserFromContext(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"course_id": id, "approved": req.Approved})
}

// ExportCourseRoster streams the course roster as a spreadsheet
func (h *AdminHandler) ExportCourseRoster(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	export, err := h.reportService.CourseRoster(c.Request.Context(), id, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.Content)
}
