package controller

import (
	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/service"
	"guidesphere_backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserController 处理用户相关的HTTP请求
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{
		UserService: userService,
	}
}

func profile(u *model.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"username":   u.Username,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"role":       u.Role,
		"avatar_uri": u.Avatar(),
		"full_name":  strings.TrimSpace(u.FirstName + " " + u.LastName),
	}
}

// Me godoc
// @Summary 当前用户信息
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /users/me [get]
func (c *UserController) Me(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	user, err := c.UserService.GetByID(claims.UserID())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"user": profile(user)})
}

type AvatarRequest struct {
	AvatarURI string `json:"avatar_uri"`
}

// UpdateAvatar godoc
// @Summary 更新头像地址
// @Tags 用户
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body AvatarRequest true "头像 URI"
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "avatar_uri 为空"
// @Router /users/me/avatar [put]
func (c *UserController) UpdateAvatar(ctx *gin.Context) {
	var req AvatarRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, util.ErrAvatarRequired.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	if err := c.UserService.UpdateAvatar(claims.UserID(), req.AvatarURI); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"avatar_uri": strings.TrimSpace(req.AvatarURI)})
}

// ListUsers godoc
// @Summary 用户列表
// @Description superadmin 可搜索全部用户，其他角色只返回自己
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   pageSize query int false "每页条数" default(20)
// @Param   q query string false "搜索关键词"
// @Success 200 {object} util.Response "成功"
// @Router /admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	page, pageSize := util.ParsePage(ctx.Query("page"), ctx.Query("pageSize"))
	claims := util.GetUserFromContext(ctx)

	users, total, page, err := c.UserService.List(claims, ctx.Query("q"), page, pageSize)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"users":    users,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// UpdateUser godoc
// @Summary 更新用户
// @Description superadmin 或本人可以修改；角色只能由 superadmin 修改
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "用户ID"
// @Param   body body service.UpdateUserInput true "要更新的字段"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "无权限"
// @Failure 409 {object} util.Response "邮箱或用户名冲突"
// @Router /admin/users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	var req service.UpdateUserInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	updated, err := c.UserService.Update(util.GetUserFromContext(ctx), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"updated": updated})
}

// DeleteUser godoc
// @Summary 删除用户
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "用户ID"
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "不能删除自己"
// @Failure 403 {object} util.Response "无权限"
// @Router /admin/users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	deleted, err := c.UserService.Delete(util.GetUserFromContext(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": deleted})
}
