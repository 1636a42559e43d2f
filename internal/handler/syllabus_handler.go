package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-reviser/reviser-api/internal/service"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
	"github.com/go-reviser/reviser-api/pkg/response"
)

// SyllabusHandler handles subject, module and topic endpoints.
type SyllabusHandler struct {
	service *service.SyllabusService
}

// NewSyllabusHandler constructs a syllabus handler.
func NewSyllabusHandler(svc *service.SyllabusService) *SyllabusHandler {
	return &SyllabusHandler{service: svc}
}

// Tree godoc
// @Summary Get the full syllabus tree
// @Tags Syllabus
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /syllabus [get]
func (h *SyllabusHandler) Tree(c *gin.Context) {
	tree, err := h.service.Tree(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tree, nil)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Syllabus
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *SyllabusHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.service.ListSubjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// GetSubject godoc
// @Summary Get subject by id
// @Tags Syllabus
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id} [get]
func (h *SyllabusHandler) GetSubject(c *gin.Context) {
	subject, err := h.service.GetSubject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// CreateSubject godoc
// @Summary Create subject
// @Tags Syllabus
// @Accept json
// @Produce json
// @Param payload body service.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Router /subjects [post]
func (h *SyllabusHandler) CreateSubject(c *gin.Context) {
	var req service.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.service.CreateSubject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// ReplaceSubjects godoc
// @Summary Replace the full subject set
// @Tags Syllabus
// @Accept json
// @Produce json
// @Param payload body object true "Subject names"
// @Success 200 {object} response.Envelope
// @Router /subjects [put]
func (h *SyllabusHandler) ReplaceSubjects(c *gin.Context) {
	var req struct {
		Names []string `json:"names" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subjects, err := h.service.ReplaceSubjects(c.Request.Context(), req.Names)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// UpdateSubject godoc
// @Summary Update subject
// @Tags Syllabus
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body service.CreateSubjectRequest true "Subject payload"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id} [put]
func (h *SyllabusHandler) UpdateSubject(c *gin.Context) {
	var req service.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.service.UpdateSubject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// DeleteSubject godoc
// @Summary Delete subject
// @Tags Syllabus
// @Param id path string true "Subject ID"
// @Success 204 {object} response.Envelope
// @Router /subjects/{id} [delete]
func (h *SyllabusHandler) DeleteSubject(c *gin.Context) {
	if err := h.service.DeleteSubject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListModules godoc
// @Summary List modules of a subject
// @Tags Syllabus
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/modules [get]
func (h *SyllabusHandler) ListModules(c *gin.Context) {
	modules, err := h.service.ListModules(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, modules, nil)
}

// CreateModule godoc
// @Summary Create module
// @Tags Syllabus
// @Accept json
// @Produce json
// @Param payload body service.CreateModuleRequest true "Module payload"
// @Success 201 {object} response.Envelope
// @Router /modules [post]
func (h *SyllabusHandler) CreateModule(c *gin.Context) {
	var req service.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	module, err := h.service.CreateModule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, module)
}

// UpdateModule godoc
// @Summary Rename module
// @Tags Syllabus
// @Accept json
// @Produce json
// @Param id path string true "Module ID"
// @Param payload body map[string]string true "Module payload"
// @Success 200 {object} response.Envelope
// @Router /modules/{id} [put]
func (h *SyllabusHandler) UpdateModule(c *gin.Context) {
	var payload struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "module name required"))
		return
	}
	module, err := h.service.UpdateModule(c.Request.Context(), c.Param("id"), payload.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, module, nil)
}

// DeleteModule godoc
// @Summary Delete module
// @Tags Syllabus
// @Param id path string true "Module ID"
// @Success 204 {object} response.Envelope
// @Router /modules/{id} [delete]
func (h *SyllabusHandler) DeleteModule(c *gin.Context) {
	if err := h.service.DeleteModule(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTopics godoc
// @Summary List topics of a module
// @Tags Syllabus
// @Produce json
// @Param id path string true "Module ID"
// @Success 200 {object} response.Envelope
// @Router /modules/{id}/topics [get]
func (h *SyllabusHandler) ListTopics(c *gin.Context) {
	topics, err := h.service.ListTopics(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, topics, nil)
}

// GetTopic godoc
// @Summary Get topic by id
// @Tags Syllabus
// @Produce json
// @Param id path string true "Topic ID"
// @Success 200 {object} response.Envelope
// @Router /topics/{id} [get]
func (h *SyllabusHandler) GetTopic(c *gin.Context) {
	topic, err := h.service.GetTopic(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, topic, nil)
}

// CreateTopic godoc
// @Summary Create topic
// @Tags Syllabus
// @Accept json
// @Produce json
// @Param payload body service.CreateTopicRequest true "Topic payload"
// @Success 201 {object} response.Envelope
// @Router /topics [post]
func (h *SyllabusHandler) CreateTopic(c *gin.Context) {
	var req service.CreateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	topic, err := h.service.CreateTopic(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, topic)
}

// BulkCreateTopics godoc
// @Summary Create multiple topics
// @Tags Syllabus
// @Accept json
// @Produce json
// @Param payload body object true "Topic payloads"
// @Success 201 {object} response.Envelope
// @Router /topics/bulk [post]
func (h *SyllabusHandler) BulkCreateTopics(c *gin.Context) {
	var req struct {
		Topics []service.CreateTopicRequest `json:"topics" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	results, err := h.service.CreateTopics(c.Request.Context(), req.Topics)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, results)
}

// UpdateTopic godoc
// @Summary Update topic
// @Tags Syllabus
// @Accept json
// @Produce json
// @Param id path string true "Topic ID"
// @Param payload body service.UpdateTopicRequest true "Topic payload"
// @Success 200 {object} response.Envelope
// @Router /topics/{id} [put]
func (h *SyllabusHandler) UpdateTopic(c *gin.Context) {
	var req service.UpdateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	topic, err := h.service.UpdateTopic(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, topic, nil)
}

// DeleteTopic godoc
// @Summary Delete topic
// @Tags Syllabus
// @Param id path string true "Topic ID"
// @Success 204 {object} response.Envelope
// @Router /topics/{id} [delete]
func (h *SyllabusHandler) DeleteTopic(c *gin.Context) {
	if err := h.service.DeleteTopic(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
