package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/werejoel/tenancy-core/internal/response"
	"github.com/werejoel/tenancy-core/internal/service"
)

// AuthController 认证接口
type AuthController struct {
	userService *service.UserService
}

// NewAuthController 创建认证控制器
func NewAuthController() *AuthController {
	return &AuthController{userService: service.NewUserService()}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=64"`
	Name     string `json:"name"`
	Email    string `json:"email" binding:"omitempty,email"`
}

// Register 注册
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}

	user, err := ctrl.userService.Register(c.Request.Context(), req.Username, req.Password, req.Name, req.Email)
	if err != nil {
		response.FailWithCode(c, 1001, err.Error())
		return
	}
	response.Success(c, user)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 登录
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}

	token, user, err := ctrl.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.FailWithCode(c, 1002, err.Error())
		return
	}
	response.Success(c, gin.H{
		"token": token,
		"user":  user,
	})
}
