package gin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mockmate/server/internal/domain/interview"
	"github.com/mockmate/server/internal/model"
)

// interviewHandler serves the metered interview session endpoints.
type interviewHandler struct {
	service *interview.Service
}

// NewInterviewHandler creates a new interview HTTP handler.
func NewInterviewHandler(service *interview.Service) *interviewHandler {
	return &interviewHandler{service: service}
}

func (h *interviewHandler) StartInterview(c *gin.Context) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		JobRole    string `json:"job_role" binding:"required"`
		Difficulty string `json:"difficulty" binding:"required"`
		Style      string `json:"style" binding:"required"`
		Language   string `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	config := model.InterviewConfig{
		JobRole:    req.JobRole,
		Difficulty: model.InterviewDifficulty(req.Difficulty),
		Style:      model.InterviewStyle(req.Style),
		Language:   req.Language,
	}

	result, err := h.service.Start(c.Request.Context(), userID, config)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session": result.Session.ToResponse(),
		"script":  result.Script,
	})
}

func (h *interviewHandler) CompleteInterview(c *gin.Context) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.service.Complete(c.Request.Context(), userID, sessionID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.ToResponse())
}

func (h *interviewHandler) CancelInterview(c *gin.Context) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.service.Cancel(c.Request.Context(), userID, sessionID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.ToResponse())
}

func (h *interviewHandler) GetInterview(c *gin.Context) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.service.Get(c.Request.Context(), userID, sessionID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.ToResponse())
}

func (h *interviewHandler) ListInterviews(c *gin.Context) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	sessions, err := h.service.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		handleError(c, err)
		return
	}

	response := make([]*model.InterviewSessionResponse, len(sessions))
	for i, s := range sessions {
		response[i] = s.ToResponse()
	}
	c.JSON(http.StatusOK, gin.H{"sessions": response})
}
