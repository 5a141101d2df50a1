package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/werejoel/tenancy-core/internal/response"
	"github.com/werejoel/tenancy-core/internal/service"
)

// UserController 用户管理接口
// 路由层按策略控制访问，控制器只做参数处理
type UserController struct {
	userService *service.UserService
}

// NewUserController 创建用户管理控制器
func NewUserController() *UserController {
	return &UserController{userService: service.NewUserService()}
}

// CreateUserRequest 管理员建用户请求
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// CreateUser 管理员新增用户
// POST /api/v1/users
func (ctrl *UserController) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}

	user, err := ctrl.userService.Register(c.Request.Context(), req.Username, req.Password, req.Name, req.Email)
	if err != nil {
		response.FailWithCode(c, 6008, err.Error())
		return
	}
	response.Success(c, user)
}

// UpdateUser 更新用户资料
// PUT /api/v1/users/:id
func (ctrl *UserController) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的用户Id")
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}
	// 用户名和密码不走这个口
	allowed := map[string]bool{"name": true, "email": true, "status": true}
	for key := range updates {
		if !allowed[key] {
			delete(updates, key)
		}
	}
	if len(updates) == 0 {
		response.Fail(c, 400, "没有可更新的字段")
		return
	}

	if err := ctrl.userService.UpdateUser(c.Request.Context(), id, updates); err != nil {
		response.FailWithCode(c, 6009, err.Error())
		return
	}
	response.SuccessWithMessage(c, "更新成功", nil)
}

// ResetPasswordRequest 重置密码请求
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

// ResetPassword 重置用户密码
// PUT /api/v1/users/:id/password
func (ctrl *UserController) ResetPassword(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的用户Id")
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}

	if err := ctrl.userService.ResetPassword(c.Request.Context(), id, req.Password); err != nil {
		response.FailWithCode(c, 6010, err.Error())
		return
	}
	response.SuccessWithMessage(c, "重置成功", nil)
}

// ListUsers 用户列表
// GET /api/v1/users
func (ctrl *UserController) ListUsers(c *gin.Context) {
	users, err := ctrl.userService.ListUsers(c.Request.Context())
	if err != nil {
		response.FailWithCode(c, 6001, err.Error())
		return
	}
	response.Success(c, users)
}

// GetUser 用户详情
// GET /api/v1/users/:id
func (ctrl *UserController) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的用户Id")
		return
	}

	user, err := ctrl.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		response.FailWithCode(c, 6002, err.Error())
		return
	}
	response.Success(c, user)
}

// DisableUser 停用用户
// DELETE /api/v1/users/:id
func (ctrl *UserController) DisableUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的用户Id")
		return
	}

	if err := ctrl.userService.DisableUser(c.Request.Context(), id); err != nil {
		response.FailWithCode(c, 6003, err.Error())
		return
	}
	response.SuccessWithMessage(c, "停用成功", nil)
}

// RoleRequest 角色操作请求
type RoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// AssignRole 绑定角色
// POST /api/v1/users/:id/roles
func (ctrl *UserController) AssignRole(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的用户Id")
		return
	}

	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}

	if err := ctrl.userService.AssignRole(c.Request.Context(), id, req.Role); err != nil {
		response.FailWithCode(c, 6004, err.Error())
		return
	}
	response.SuccessWithMessage(c, "绑定成功", nil)
}

// RevokeRole 解除角色
// DELETE /api/v1/users/:id/roles
func (ctrl *UserController) RevokeRole(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的用户Id")
		return
	}

	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}

	if err := ctrl.userService.RevokeRole(c.Request.Context(), id, req.Role); err != nil {
		response.FailWithCode(c, 6005, err.Error())
		return
	}
	response.SuccessWithMessage(c, "解除成功", nil)
}

// ClaimRequest 权限声明操作请求
type ClaimRequest struct {
	ClaimType  string `json:"claimType" binding:"required"`
	ClaimValue string `json:"claimValue"`
}

// AddClaim 添加权限声明
// POST /api/v1/users/:id/claims
func (ctrl *UserController) AddClaim(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的用户Id")
		return
	}

	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}

	if err := ctrl.userService.AddClaim(c.Request.Context(), id, req.ClaimType, req.ClaimValue); err != nil {
		response.FailWithCode(c, 6006, err.Error())
		return
	}
	response.SuccessWithMessage(c, "添加成功", nil)
}

// RemoveClaim 移除权限声明
// DELETE /api/v1/users/:id/claims
func (ctrl *UserController) RemoveClaim(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的用户Id")
		return
	}

	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}

	if err := ctrl.userService.RemoveClaim(c.Request.Context(), id, req.ClaimType, req.ClaimValue); err != nil {
		response.FailWithCode(c, 6007, err.Error())
		return
	}
	response.SuccessWithMessage(c, "移除成功", nil)
}
