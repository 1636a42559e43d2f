package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/go-reviser/reviser-api/internal/models"
	"github.com/go-reviser/reviser-api/internal/service"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
	"github.com/go-reviser/reviser-api/pkg/response"
)

// QuestionHandler handles question browsing and maintenance endpoints.
type QuestionHandler struct {
	service *service.QuestionService
}

// NewQuestionHandler constructs a question handler.
func NewQuestionHandler(svc *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{service: svc}
}

func questionFilterFromQuery(c *gin.Context) models.QuestionFilter {
	var filter models.QuestionFilter
	filter.SubCategoryID = c.Query("subCategoryId")
	filter.SubCategoryName = c.Query("subCategoryName")
	filter.CategoryID = c.Query("categoryId")
	filter.CategoryName = c.Query("categoryName")
	filter.SubjectName = c.Query("subjectName")
	filter.Tag = c.Query("tag")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter
}

// List godoc
// @Summary List questions
// @Tags Questions
// @Produce json
// @Param subCategoryId query string false "Filter by subcategory"
// @Param subCategoryName query string false "Filter by subcategory name"
// @Param categoryId query string false "Filter by category"
// @Param categoryName query string false "Filter by category name"
// @Param subjectName query string false "Filter by subject name"
// @Param year query int false "Filter by exam year"
// @Param tag query string false "Filter by tag name"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /questions [get]
func (h *QuestionHandler) List(c *gin.Context) {
	questions, pagination, err := h.service.List(c.Request.Context(), questionFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, questions, pagination)
}

// Get godoc
// @Summary Get question by id
// @Tags Questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} response.Envelope
// @Router /questions/{id} [get]
func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// Update godoc
// @Summary Update question
// @Tags Questions
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param payload body service.UpdateQuestionRequest true "Question payload"
// @Success 200 {object} response.Envelope
// @Router /questions/{id} [put]
func (h *QuestionHandler) Update(c *gin.Context) {
	var req service.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	question, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// Delete godoc
// @Summary Delete question
// @Tags Questions
// @Param id path string true "Question ID"
// @Success 204 {object} response.Envelope
// @Router /questions/{id} [delete]
func (h *QuestionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CountsBySubject godoc
// @Summary Count questions per subject
// @Tags Questions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /questions/counts/subjects [get]
func (h *QuestionHandler) CountsBySubject(c *gin.Context) {
	counts, err := h.service.CountsBySubject(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// CountsByCategory godoc
// @Summary Count questions per category
// @Tags Questions
// @Produce json
// @Param subject query string false "Limit counts to one subject"
// @Success 200 {object} response.Envelope
// @Router /questions/counts/categories [get]
func (h *QuestionHandler) CountsByCategory(c *gin.Context) {
	counts, err := h.service.CountsByCategory(c.Request.Context(), c.Query("subject"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// RenormalizeContent godoc
// @Summary Renormalize math delimiters in stored question content
// @Tags Questions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /questions/renormalize [post]
func (h *QuestionHandler) RenormalizeContent(c *gin.Context) {
	changed, err := h.service.RenormalizeContent(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": changed}, nil)
}

// Export godoc
// @Summary Export questions as CSV or PDF
// @Tags Questions
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /questions/export [get]
func (h *QuestionHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	payload, contentType, err := h.service.Export(c.Request.Context(), questionFilterFromQuery(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("questions.%s", format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
