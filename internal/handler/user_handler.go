package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ocrdesk/internal/service"
)

// UserHandler handles reviewer account management endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Create handles POST /api/v1/users
// @Summary Create a reviewer account
// @Tags users
// @Accept json
// @Produce json
// @Param input body service.CreateUserInput true "Account details"
// @Success 201 {object} APIResponse{data=domain.User}
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var input service.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	user, err := h.userService.Create(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, user)
}

// GetByID handles GET /api/v1/users/:id
// @Summary Get a reviewer account
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} APIResponse{data=domain.User}
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, user)
}
