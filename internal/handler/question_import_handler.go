package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-reviser/reviser-api/internal/models"
	"github.com/go-reviser/reviser-api/internal/service"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
	"github.com/go-reviser/reviser-api/pkg/response"
)

// QuestionImportHandler handles question creation endpoints.
type QuestionImportHandler struct {
	service *service.QuestionImportService
	metrics *service.MetricsService
}

// NewQuestionImportHandler constructs a question import handler.
func NewQuestionImportHandler(svc *service.QuestionImportService, metrics *service.MetricsService) *QuestionImportHandler {
	return &QuestionImportHandler{service: svc, metrics: metrics}
}

// BulkCreate godoc
// @Summary Bulk import questions
// @Description Import a batch of questions, reporting per-record outcomes
// @Tags Questions
// @Accept json
// @Produce json
// @Param payload body models.BulkImportRequest true "Bulk import payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /questions/create-bulk [post]
func (h *QuestionImportHandler) BulkCreate(c *gin.Context) {
	var req models.BulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}

	start := time.Now()
	res, err := h.service.ImportBulk(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveImport(map[string]int{
		"successful":    res.Summary.Successful,
		"failed":        res.Summary.Failed,
		"alreadyExists": res.Summary.AlreadyExists,
		"inactiveTags":  res.Summary.InactiveTags,
	}, time.Since(start))

	response.Created(c, res)
}

// Create godoc
// @Summary Create a single question
// @Description Create one question through the same resolution pipeline as bulk import
// @Tags Questions
// @Accept json
// @Produce json
// @Param payload body models.SingleImportRequest true "Question payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /questions [post]
func (h *QuestionImportHandler) Create(c *gin.Context) {
	var req models.SingleImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid question payload"))
		return
	}

	res, err := h.service.ImportOne(c.Request.Context(), req.Question, req.ExamBranchNames)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}
