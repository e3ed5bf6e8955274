package app

import (
	"net/http"
	"strings"

	"coursepulse/internal/service"
	"coursepulse/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressHandler struct {
	progressService service.ProgressService
}

func NewProgressHandler(progressService service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// SaveProgress stores the caller's watch position for one video
// POST /api/v1/progress
func (h *ProgressHandler) SaveProgress(c *gin.Context) {
	userID := c.GetString("userID")

	var req service.SaveProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	progress, err := h.progressService.SaveProgress(userID, req)
	if err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		}
		util.ErrorResponse(c, status, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Progress saved", progress)
}

// GetCourseStats returns the caller's aggregate watch stats for a course
// GET /api/v1/progress/:courseId
func (h *ProgressHandler) GetCourseStats(c *gin.Context) {
	userID := c.GetString("userID")
	courseID := c.Param("courseId")

	stats, err := h.progressService.GetCourseStats(userID, courseID)
	if err != nil {
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		}
		util.ErrorResponse(c, status, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Course stats retrieved", stats)
}

// Enroll adds the caller to a course
// POST /api/v1/courses/:courseId/enroll
func (h *ProgressHandler) Enroll(c *gin.Context) {
	userID := c.GetString("userID")
	courseID := c.Param("courseId")

	if err := h.progressService.Enroll(userID, courseID); err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		}
		util.ErrorResponse(c, status, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Enrolled in course", nil)
}

// GetEnrolledCourses lists the caller's courses
// GET /api/v1/courses/enrolled
func (h *ProgressHandler) GetEnrolledCourses(c *gin.Context) {
	userID := c.GetString("userID")

	courses, err := h.progressService.GetEnrolledCourses(userID)
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to load courses", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Courses retrieved", gin.H{"courses": courses})
}
