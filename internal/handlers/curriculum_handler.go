package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlearn/lms-service/internal/services"
	"github.com/openlearn/lms-service/internal/utils"
)

type CurriculumHandler struct {
	BaseHandler
	curriculumService services.CurriculumService
}

func NewCurriculumHandler(curriculumService services.CurriculumService, logger utils.Logger) *CurriculumHandler {
	return &CurriculumHandler{
		BaseHandler:       NewBaseHandler(logger),
		curriculumService: curriculumService,
	}
}

// AddModule appends a module to the course curriculum
func (h *CurriculumHandler) AddModule(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	var req services.CreateModuleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	module, err := h.curriculumService.AddModule(c.Request.Context(), courseID, &req, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, module)
}

// UpdateModule renames a module
func (h *CurriculumHandler) UpdateModule(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	var req services.UpdateModuleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	module, err := h.curriculumService.UpdateModule(c.Request.Context(), courseID, moduleID, &req, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

// DeleteModule removes a module and its lessons
func (h *CurriculumHandler) DeleteModule(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	if err := h.curriculumService.DeleteModule(c.Request.Context(), courseID, moduleID, OptionalUserFromContext(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListModules returns the public course outline without lesson bodies
func (h *CurriculumHandler) ListModules(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	modules, err := h.curriculumService.ListModules(c.Request.Context(), courseID, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"modules": modules})
}

// AddLesson appends a lesson to a module
func (h *CurriculumHandler) AddLesson(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	var req services.CreateLessonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lesson, err := h.curriculumService.AddLesson(c.Request.Context(), courseID, moduleID, &req, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lesson)
}

// GetLesson returns the full lesson content, enrollment-gated
func (h *CurriculumHandler) GetLesson(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	lessonID := h.parseIDParam(c, "lesson_id")
	if lessonID == 0 {
		return
	}

	lesson, err := h.curriculumService.GetLesson(c.Request.Context(), courseID, lessonID, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lesson)
}

// UpdateLesson updates lesson fields
func (h *CurriculumHandler) UpdateLesson(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	lessonID := h.parseIDParam(c, "lesson_id")
	if lessonID == 0 {
		return
	}

	var req services.UpdateLessonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lesson, err := h.curriculumService.UpdateLesson(c.Request.Context(), courseID, lessonID, &req, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lesson)
}

// DeleteLesson removes a lesson
func (h *CurriculumHandler) DeleteLesson(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	lessonID := h.parseIDParam(c, "lesson_id")
	if lessonID == 0 {
		return
	}

	if err := h.curriculumService.DeleteLesson(c.Request.Context(), courseID, lessonID, OptionalUserFromContext(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ReorderCurriculum atomically rewrites the module and lesson ordering
func (h *CurriculumHandler) ReorderCurriculum(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	var req services.ReorderCurriculumRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.curriculumService.Reorder(c.Request.Context(), courseID, &req, OptionalUserFromContext(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "curriculum reordered"})
}
