package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-reviser/reviser-api/internal/models"
	"github.com/go-reviser/reviser-api/internal/service"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
	"github.com/go-reviser/reviser-api/pkg/response"
)

// ProgressHandler handles question and topic progress endpoints.
type ProgressHandler struct {
	questions *service.QuestionProgressService
	topics    *service.TopicProgressService
}

// NewProgressHandler constructs a progress handler.
func NewProgressHandler(questions *service.QuestionProgressService, topics *service.TopicProgressService) *ProgressHandler {
	return &ProgressHandler{questions: questions, topics: topics}
}

// UpsertQuestionProgress godoc
// @Summary Record progress on a question
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body models.QuestionProgressUpsertRequest true "Progress payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /progress/questions [put]
func (h *ProgressHandler) UpsertQuestionProgress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.QuestionProgressUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid progress payload"))
		return
	}
	progress, err := h.questions.Upsert(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// GetQuestionProgress godoc
// @Summary Get progress for one question
// @Tags Progress
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} response.Envelope
// @Router /progress/questions/{id} [get]
func (h *ProgressHandler) GetQuestionProgress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	progress, err := h.questions.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// ListQuestionProgress godoc
// @Summary List all question progress of the user
// @Tags Progress
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /progress/questions [get]
func (h *ProgressHandler) ListQuestionProgress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	progress, err := h.questions.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// BulkQuestionProgress godoc
// @Summary Get progress for a set of questions
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body models.BulkQuestionProgressCheckRequest true "Question IDs"
// @Success 200 {object} response.Envelope
// @Router /progress/questions/bulk-check [post]
func (h *ProgressHandler) BulkQuestionProgress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.BulkQuestionProgressCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	progress, err := h.questions.BulkGet(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// QuestionProgressSummary godoc
// @Summary Summarize question progress per category
// @Tags Progress
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /progress/questions/summary [get]
func (h *ProgressHandler) QuestionProgressSummary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.questions.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// UpsertTopicProgress godoc
// @Summary Set completion flags for one topic
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body models.TopicProgressUpdateRequest true "Topic progress payload"
// @Success 200 {object} response.Envelope
// @Router /progress/topics [put]
func (h *ProgressHandler) UpsertTopicProgress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.TopicProgressUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid topic progress payload"))
		return
	}
	progress, err := h.topics.Upsert(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// GetTopicProgress godoc
// @Summary Get progress for one topic
// @Tags Progress
// @Produce json
// @Param id path string true "Topic ID"
// @Success 200 {object} response.Envelope
// @Router /progress/topics/{id} [get]
func (h *ProgressHandler) GetTopicProgress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	progress, err := h.topics.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// ListTopicProgress godoc
// @Summary List all topic progress of the user
// @Tags Progress
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /progress/topics [get]
func (h *ProgressHandler) ListTopicProgress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	progress, err := h.topics.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// BulkUpdateTopicProgress godoc
// @Summary Update completion flags for many topics
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body models.BulkTopicProgressRequest true "Bulk topic progress payload"
// @Success 200 {object} response.Envelope
// @Router /progress/topics/bulk [put]
func (h *ProgressHandler) BulkUpdateTopicProgress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.BulkTopicProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	results, err := h.topics.BulkUpdate(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// BulkCheckTopicProgress godoc
// @Summary Check completion flags for a set of topics
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body models.BulkTopicCheckRequest true "Topic IDs"
// @Success 200 {object} response.Envelope
// @Router /progress/topics/bulk-check [post]
func (h *ProgressHandler) BulkCheckTopicProgress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.BulkTopicCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	results, err := h.topics.BulkCheck(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// TopicProgressSummary godoc
// @Summary Summarize topic completion over the syllabus
// @Tags Progress
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /progress/topics/summary [get]
func (h *ProgressHandler) TopicProgressSummary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.topics.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// DeleteTopicProgress godoc
// @Summary Delete progress for one topic
// @Tags Progress
// @Param id path string true "Topic ID"
// @Success 204 {object} response.Envelope
// @Router /progress/topics/{id} [delete]
func (h *ProgressHandler) DeleteTopicProgress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.topics.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
