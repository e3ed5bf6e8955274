package app

import (
	"net/http"
	"strconv"
	"strings"

	"coursepulse/internal/model"
	"coursepulse/internal/service"
	"coursepulse/internal/util"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService service.CommentService
	threadService  service.ThreadService
	authService    service.AuthService
}

func NewCommentHandler(commentService service.CommentService, threadService service.ThreadService, authService service.AuthService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		threadService:  threadService,
		authService:    authService,
	}
}

func scopeFromQuery(c *gin.Context) model.ThreadScope {
	return model.ThreadScope{
		CourseID:    c.Query("course_id"),
		ChapterName: c.Query("chapter_name"),
		TopicName:   c.Query("topic_name"),
		VideoID:     c.Query("video_id"),
	}
}

// GetThread returns the rendered comment thread for one video scope
// GET /api/v1/comments?course_id=..&chapter_name=..&topic_name=..&video_id=..&sort=newest&visible=7
func (h *CommentHandler) GetThread(c *gin.Context) {
	userID := c.GetString("userID")

	scope := scopeFromQuery(c)
	if !scope.Valid() {
		util.BadRequest(c, "course_id, chapter_name, topic_name and video_id are required")
		return
	}

	mode := service.SortMode(strings.ToLower(c.DefaultQuery("sort", string(service.SortNewest))))
	switch mode {
	case service.SortNewest, service.SortLikes, service.SortMentions:
	default:
		util.BadRequest(c, "sort must be one of newest, likes, mentions")
		return
	}

	visible, _ := strconv.Atoi(c.DefaultQuery("visible", "7"))

	profile := h.authService.ResolveProfile(userID)
	view, err := h.threadService.View(scope, service.Viewer{ID: userID, Name: profile.Name}, mode)
	if err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Thread retrieved", presentThread(view, userID, visible))
}

// CreateComment publishes a new top-level comment
// POST /api/v1/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID := c.GetString("userID")

	var req service.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.CreateComment(userID, req)
	if err != nil {
		util.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Comment created", comment)
}

// UpdateComment edits a comment's text
// PUT /api/v1/comments/:id
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	userID := c.GetString("userID")
	commentID := c.Param("id")

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.EditComment(userID, commentID, req.Text)
	if err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		} else if strings.Contains(err.Error(), "your own") {
			status = http.StatusForbidden
		}
		util.ErrorResponse(c, status, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comment updated", comment)
}

// DeleteComment removes a comment and its replies, likes and notifications
// DELETE /api/v1/comments/:id
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID := c.GetString("userID")
	commentID := c.Param("id")

	if err := h.commentService.DeleteComment(userID, commentID); err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		} else if strings.Contains(err.Error(), "your own") {
			status = http.StatusForbidden
		}
		util.ErrorResponse(c, status, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comment deleted", nil)
}

// ToggleLike flips the caller's like on a comment
// POST /api/v1/comments/:id/like
func (h *CommentHandler) ToggleLike(c *gin.Context) {
	userID := c.GetString("userID")
	commentID := c.Param("id")

	result, err := h.commentService.ToggleLike(userID, commentID)
	if err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		}
		util.ErrorResponse(c, status, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Like toggled", result)
}

// CreateReply attaches a reply to a comment
// POST /api/v1/comments/:id/replies
func (h *CommentHandler) CreateReply(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	reply, err := h.commentService.CreateReply(userID, service.CreateReplyRequest{
		CommentID: c.Param("id"),
		Text:      req.Text,
	})
	if err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		}
		util.ErrorResponse(c, status, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Reply created", reply)
}

// UpdateReply edits a reply's text
// PUT /api/v1/replies/:id
func (h *CommentHandler) UpdateReply(c *gin.Context) {
	userID := c.GetString("userID")
	replyID := c.Param("id")

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	reply, err := h.commentService.EditReply(userID, replyID, req.Text)
	if err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		} else if strings.Contains(err.Error(), "your own") {
			status = http.StatusForbidden
		}
		util.ErrorResponse(c, status, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Reply updated", reply)
}

// DeleteReply removes a reply
// DELETE /api/v1/replies/:id
func (h *CommentHandler) DeleteReply(c *gin.Context) {
	userID := c.GetString("userID")
	replyID := c.Param("id")

	if err := h.commentService.DeleteReply(userID, replyID); err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		} else if strings.Contains(err.Error(), "your own") {
			status = http.StatusForbidden
		}
		util.ErrorResponse(c, status, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Reply deleted", nil)
}
