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

// UserHandler handles profile and account endpoints.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler constructs a user handler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// Me godoc
// @Summary Get the authenticated user's profile
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.service.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// UpdateMe godoc
// @Summary Update the authenticated user's profile
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param search query string false "Search keyword"
// @Param subscription query string false "Filter by subscription status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var filter models.UserFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.SubscriptionStatus = c.Query("subscription")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	users, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// SetSubscription godoc
// @Summary Set a user's subscription status
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body map[string]string true "Subscription payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users/{id}/subscription [put]
func (h *UserHandler) SetSubscription(c *gin.Context) {
	var payload struct {
		SubscriptionStatus string `json:"subscriptionStatus" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "subscription status required"))
		return
	}
	user, err := h.service.SetSubscription(c.Request.Context(), c.Param("id"), models.SubscriptionStatus(payload.SubscriptionStatus))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Contact godoc
// @Summary Submit a contact-form message
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.ContactRequest true "Contact payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /contact [post]
func (h *UserHandler) Contact(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid contact payload"))
		return
	}
	if err := h.service.Contact(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"message": "Message received"}, nil)
}
