package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"revengepos/internal/core/apperror"
	appctx "revengepos/internal/core/context"
	"revengepos/internal/domain/auth"
	"revengepos/internal/infrastructure/http/v1/dto"
)

// UserHandler serves staff users and the current session.
type UserHandler struct {
	*CatalogHandler[*auth.User, dto.UserRequest, dto.UserRequest]
	service *auth.Service
	gate    *auth.Gate
}

// NewUserHandler creates a new user handler.
func NewUserHandler(base *BaseHandler, service *auth.Service, gate *auth.Gate) *UserHandler {
	crud := NewCatalogHandler(base, CatalogHandlerConfig[*auth.User, dto.UserRequest, dto.UserRequest]{
		Service:      service,
		MapCreateDTO: (*dto.UserRequest).ToEntity,
		MapUpdateDTO: (*dto.UserRequest).ApplyTo,
	})
	return &UserHandler{CatalogHandler: crud, service: service, gate: gate}
}

// MeResponse describes the authenticated user.
type MeResponse struct {
	User        *auth.User `json:"user"`
	Permissions []string   `json:"permissions"`
}

// Me handles GET /auth/me
func (h *UserHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := h.Actor(c)
	if !ok {
		return
	}

	user, err := h.gate.RequireActive(ctx, userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	userCtx := appctx.GetOperator(ctx)
	if userCtx == nil {
		h.Error(c, apperror.NewUnauthorized("not authenticated"))
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: user, Permissions: userCtx.Permissions})
}

// Cashiers handles GET /users/cashiers
func (h *UserHandler) Cashiers(c *gin.Context) {
	users, err := h.service.ListCashiers(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ItemsResponse{Items: users})
}
