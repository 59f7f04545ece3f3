package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/repositories"
	"github.com/openlearn/lms-service/internal/services"
	"github.com/openlearn/lms-service/internal/utils"
)

type CourseHandler struct {
	BaseHandler
	courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		courseService: courseService,
	}
}

// CreateCourse creates a new draft course owned by the caller
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req services.CreateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.courseService.Create(c.Request.Context(), &req, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetCourse returns one course, subject to the visibility rules
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	resp, err := h.courseService.GetByID(c.Request.Context(), id, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetCourseWithCurriculum returns a course with its ordered modules and
// lessons
func (h *CourseHandler) GetCourseWithCurriculum(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	resp, err := h.courseService.GetByIDWithCurriculum(c.Request.Context(), id, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateCourse updates course fields
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.courseService.Update(c.Request.Context(), id, &req, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteCourse soft deletes a course
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), id, OptionalUserFromContext(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListCourses serves the public catalog of approved courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	filters := parseCourseFilters(c)

	resp, err := h.courseService.List(c.Request.Context(), filters, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetMyCourses lists the caller's own courses, drafts included
func (h *CourseHandler) GetMyCourses(c *gin.Context) {
	filters := parseCourseFilters(c)

	resp, err := h.courseService.GetMine(c.Request.Context(), filters, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetCourseStats returns lesson, module, and enrollment counts
func (h *CourseHandler) GetCourseStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	stats, err := h.courseService.GetStats(c.Request.Context(), id, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetInstructorStats returns the caller's teaching statistics
func (h *CourseHandler) GetInstructorStats(c *gin.Context) {
	stats, err := h.courseService.GetInstructorStats(c.Request.Context(), OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// parseCourseFilters reads catalog query parameters into a filter struct
func parseCourseFilters(c *gin.Context) repositories.CourseFilters {
	filters := repositories.CourseFilters{
		Limit:     20,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

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
	if v := c.Query("category"); v != "" {
		filters.Category = &v
	}
	if v := c.Query("level"); v != "" {
		level := models.CourseLevel(v)
		filters.Level = &level
	}
	if v := c.Query("search"); v != "" {
		filters.Search = &v
	}

	return filters
}
