package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/go-reviser/reviser-api/internal/models"
	"github.com/go-reviser/reviser-api/internal/service"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
	"github.com/go-reviser/reviser-api/pkg/response"
)

// TagHandler handles question tag endpoints.
type TagHandler struct {
	service *service.TagService
}

// NewTagHandler constructs a tag handler.
func NewTagHandler(svc *service.TagService) *TagHandler {
	return &TagHandler{service: svc}
}

// List godoc
// @Summary List question tags
// @Tags Tags
// @Produce json
// @Param search query string false "Search keyword"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /question-tags [get]
func (h *TagHandler) List(c *gin.Context) {
	var filter models.TagFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}

	tags, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tags, pagination)
}

// Get godoc
// @Summary Get question tag by id
// @Tags Tags
// @Produce json
// @Param id path string true "Tag ID"
// @Success 200 {object} response.Envelope
// @Router /question-tags/{id} [get]
func (h *TagHandler) Get(c *gin.Context) {
	tag, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tag, nil)
}

// Create godoc
// @Summary Create question tag
// @Tags Tags
// @Accept json
// @Produce json
// @Param payload body service.CreateTagRequest true "Tag payload"
// @Success 201 {object} response.Envelope
// @Router /question-tags [post]
func (h *TagHandler) Create(c *gin.Context) {
	var req service.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tag, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tag)
}

// Update godoc
// @Summary Update question tag
// @Tags Tags
// @Accept json
// @Produce json
// @Param id path string true "Tag ID"
// @Param payload body service.UpdateTagRequest true "Tag payload"
// @Success 200 {object} response.Envelope
// @Router /question-tags/{id} [put]
func (h *TagHandler) Update(c *gin.Context) {
	var req service.UpdateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tag, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tag, nil)
}

// Delete godoc
// @Summary Delete question tag
// @Tags Tags
// @Param id path string true "Tag ID"
// @Success 204 {object} response.Envelope
// @Router /question-tags/{id} [delete]
func (h *TagHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
