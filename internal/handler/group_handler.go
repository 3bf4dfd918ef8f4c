package handler

import (
	"net/http"

	"carf-backend/internal/middleware"
	"carf-backend/internal/service"
	"carf-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	groupService service.GroupService
}

func NewGroupHandler(groupService service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

func (h *GroupHandler) RegisterRoutes(router *gin.RouterGroup) {
	groups := router.Group("/api/groups")
	{
		groups.GET("", middleware.RequirePermission("groups.manage"), h.ListGroups)
		groups.GET("/permissions", middleware.RequirePermission("groups.manage"), h.ListPermissions)
		groups.GET("/:id", middleware.RequirePermission("groups.manage"), h.GetGroup)
		groups.POST("", middleware.RequirePermission("groups.manage"), h.CreateGroup)
		groups.PUT("/:id", middleware.RequirePermission("groups.manage"), h.UpdateGroup)
		groups.PUT("/:id/permissions", middleware.RequirePermission("groups.manage"), h.UpdateGroupPermissions)
		groups.DELETE("/:id", middleware.RequirePermission("groups.manage"), h.DeleteGroup)
	}
}

// ListGroups lists all user groups with permissions
// @Summary      List user groups
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.GroupResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/groups [get]
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groupService.ListGroups(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, groups))
}

// ListPermissions lists all known permissions
// @Summary      List permissions
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.PermissionResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/groups/permissions [get]
func (h *GroupHandler) ListPermissions(c *gin.Context) {
	perms, err := h.groupService.ListPermissions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// GetGroup fetches one group
// @Summary      Get user group
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Group ID"
// @Success      200  {object}  response.Response{data=service.GroupResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/groups/{id} [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.groupService.GetGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// CreateGroup creates a user group
// @Summary      Create user group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateGroupRequest  true  "Group definition"
// @Success      201      {object}  response.Response{data=service.GroupResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req service.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, group))
}

// UpdateGroup updates a group's name and description
// @Summary      Update user group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Group ID"
// @Param        payload  body      service.UpdateGroupRequest  true  "Group fields"
// @Success      200      {object}  response.Response{data=service.GroupResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/groups/{id} [put]
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	var req service.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	group, err := h.groupService.UpdateGroup(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// UpdateGroupPermissions replaces a group's permission set
// @Summary      Update group permissions
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                                 true  "Group ID"
// @Param        payload  body      service.UpdateGroupPermissionsRequest  true  "Permission IDs"
// @Success      200      {object}  response.Response{data=service.GroupResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/groups/{id}/permissions [put]
func (h *GroupHandler) UpdateGroupPermissions(c *gin.Context) {
	var req service.UpdateGroupPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	group, err := h.groupService.UpdateGroupPermissions(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// DeleteGroup deletes a non-system group
// @Summary      Delete user group
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Group ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/groups/{id} [delete]
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	if err := h.groupService.DeleteGroup(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Group deleted"))
}
