package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/go-reviser/reviser-api/internal/service"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
	"github.com/go-reviser/reviser-api/pkg/response"
)

// ExamBranchHandler handles exam branch endpoints.
type ExamBranchHandler struct {
	service *service.ExamBranchService
}

// NewExamBranchHandler constructs an exam branch handler.
func NewExamBranchHandler(svc *service.ExamBranchService) *ExamBranchHandler {
	return &ExamBranchHandler{service: svc}
}

// List godoc
// @Summary List exam branches
// @Tags ExamBranches
// @Produce json
// @Param active query bool false "Only active branches"
// @Success 200 {object} response.Envelope
// @Router /exam-branches [get]
func (h *ExamBranchHandler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))
	branches, err := h.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, branches, nil)
}

// Get godoc
// @Summary Get exam branch by id
// @Tags ExamBranches
// @Produce json
// @Param id path string true "Branch ID"
// @Success 200 {object} response.Envelope
// @Router /exam-branches/{id} [get]
func (h *ExamBranchHandler) Get(c *gin.Context) {
	branch, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, branch, nil)
}

// Create godoc
// @Summary Create exam branch
// @Tags ExamBranches
// @Accept json
// @Produce json
// @Param payload body service.CreateExamBranchRequest true "Branch payload"
// @Success 201 {object} response.Envelope
// @Router /exam-branches [post]
func (h *ExamBranchHandler) Create(c *gin.Context) {
	var req service.CreateExamBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	branch, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, branch)
}

// Update godoc
// @Summary Update exam branch
// @Tags ExamBranches
// @Accept json
// @Produce json
// @Param id path string true "Branch ID"
// @Param payload body service.CreateExamBranchRequest true "Branch payload"
// @Success 200 {object} response.Envelope
// @Router /exam-branches/{id} [put]
func (h *ExamBranchHandler) Update(c *gin.Context) {
	var req service.CreateExamBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	branch, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, branch, nil)
}

// AddTagNames godoc
// @Summary Add exam tag names to a branch
// @Tags ExamBranches
// @Accept json
// @Produce json
// @Param id path string true "Branch ID"
// @Param payload body object true "Tag names"
// @Success 200 {object} response.Envelope
// @Router /exam-branches/{id}/tag-names [post]
func (h *ExamBranchHandler) AddTagNames(c *gin.Context) {
	var req struct {
		Names []string `json:"names" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	branch, err := h.service.AddTagNames(c.Request.Context(), c.Param("id"), req.Names)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, branch, nil)
}

// RemoveTagName godoc
// @Summary Remove an exam tag name from a branch
// @Tags ExamBranches
// @Accept json
// @Produce json
// @Param id path string true "Branch ID"
// @Param payload body object true "Tag name"
// @Success 200 {object} response.Envelope
// @Router /exam-branches/{id}/tag-names/remove [post]
func (h *ExamBranchHandler) RemoveTagName(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	branch, err := h.service.RemoveTagName(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, branch, nil)
}

// UpdateTagName godoc
// @Summary Rename an exam tag name on a branch
// @Tags ExamBranches
// @Accept json
// @Produce json
// @Param id path string true "Branch ID"
// @Param payload body object true "Old and new tag name"
// @Success 200 {object} response.Envelope
// @Router /exam-branches/{id}/tag-names [put]
func (h *ExamBranchHandler) UpdateTagName(c *gin.Context) {
	var req struct {
		OldName string `json:"oldName" binding:"required"`
		NewName string `json:"newName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	branch, err := h.service.UpdateTagName(c.Request.Context(), c.Param("id"), req.OldName, req.NewName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, branch, nil)
}

// Delete godoc
// @Summary Delete exam branch
// @Tags ExamBranches
// @Param id path string true "Branch ID"
// @Success 204 {object} response.Envelope
// @Router /exam-branches/{id} [delete]
func (h *ExamBranchHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
