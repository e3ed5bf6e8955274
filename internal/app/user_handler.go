package app

import (
	"net/http"
	"strconv"

	"coursepulse/internal/service"
	"coursepulse/internal/util"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	directory service.DirectoryService
}

func NewUserHandler(directory service.DirectoryService) *UserHandler {
	return &UserHandler{directory: directory}
}

// GetParticipants returns the full participant directory used for mention
// autocomplete
// GET /api/v1/users
func (h *UserHandler) GetParticipants(c *gin.Context) {
	participants := h.directory.Participants()
	util.SuccessResponse(c, http.StatusOK, "Participants retrieved", gin.H{
		"participants": participants,
		"total":        len(participants),
	})
}

// GetMentionSuggestions returns participants matching a name prefix
// GET /api/v1/users/suggestions?q=al&limit=5
func (h *UserHandler) GetMentionSuggestions(c *gin.Context) {
	prefix := c.Query("q")
	if prefix == "" {
		util.BadRequest(c, "query parameter q is required")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	suggestions := h.directory.Suggest(prefix, limit)
	util.SuccessResponse(c, http.StatusOK, "Suggestions retrieved", gin.H{
		"suggestions": suggestions,
	})
}

// RefreshDirectory reloads the participant directory from the store
// POST /api/v1/users/refresh
func (h *UserHandler) RefreshDirectory(c *gin.Context) {
	h.directory.Reload()
	util.SuccessResponse(c, http.StatusOK, "Directory refreshed", nil)
}
