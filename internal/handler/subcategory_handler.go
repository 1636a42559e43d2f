package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-reviser/reviser-api/internal/service"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
	"github.com/go-reviser/reviser-api/pkg/response"
)

// SubCategoryHandler handles subcategory endpoints.
type SubCategoryHandler struct {
	service *service.SubCategoryService
}

// NewSubCategoryHandler constructs a subcategory handler.
func NewSubCategoryHandler(svc *service.SubCategoryService) *SubCategoryHandler {
	return &SubCategoryHandler{service: svc}
}

// List godoc
// @Summary List subcategories
// @Tags Subcategories
// @Produce json
// @Param categoryId query string false "Filter by category"
// @Success 200 {object} response.Envelope
// @Router /sub-categories [get]
func (h *SubCategoryHandler) List(c *gin.Context) {
	if categoryID := c.Query("categoryId"); categoryID != "" {
		subs, err := h.service.ListByCategory(c.Request.Context(), categoryID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, subs, nil)
		return
	}
	subs, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subs, nil)
}

// Get godoc
// @Summary Get subcategory by id
// @Tags Subcategories
// @Produce json
// @Param id path string true "Subcategory ID"
// @Success 200 {object} response.Envelope
// @Router /sub-categories/{id} [get]
func (h *SubCategoryHandler) Get(c *gin.Context) {
	sub, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Create godoc
// @Summary Create subcategory
// @Tags Subcategories
// @Accept json
// @Produce json
// @Param payload body service.CreateSubCategoryRequest true "Subcategory payload"
// @Success 201 {object} response.Envelope
// @Router /sub-categories [post]
func (h *SubCategoryHandler) Create(c *gin.Context) {
	var req service.CreateSubCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sub, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// BulkCreate godoc
// @Summary Create many subcategories in one category
// @Tags Subcategories
// @Accept json
// @Produce json
// @Param payload body service.BulkCreateSubCategoriesRequest true "Bulk payload"
// @Success 201 {object} response.Envelope
// @Router /sub-categories/bulk [post]
func (h *SubCategoryHandler) BulkCreate(c *gin.Context) {
	var req service.BulkCreateSubCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	results, err := h.service.BulkCreate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, results)
}

// BulkDelete godoc
// @Summary Delete multiple subcategories
// @Tags SubCategories
// @Accept json
// @Produce json
// @Param payload body object true "Subcategory ids"
// @Success 200 {object} response.Envelope
// @Router /sub-categories/bulk-delete [post]
func (h *SubCategoryHandler) BulkDelete(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	results, err := h.service.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Update godoc
// @Summary Rename subcategory
// @Tags Subcategories
// @Accept json
// @Produce json
// @Param id path string true "Subcategory ID"
// @Param payload body map[string]string true "Subcategory payload"
// @Success 200 {object} response.Envelope
// @Router /sub-categories/{id} [put]
func (h *SubCategoryHandler) Update(c *gin.Context) {
	var payload struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "subcategory name required"))
		return
	}
	sub, err := h.service.Update(c.Request.Context(), c.Param("id"), payload.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Delete godoc
// @Summary Delete subcategory
// @Tags Subcategories
// @Param id path string true "Subcategory ID"
// @Success 204 {object} response.Envelope
// @Router /sub-categories/{id} [delete]
func (h *SubCategoryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
