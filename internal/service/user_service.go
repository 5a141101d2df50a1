package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/werejoel/tenancy-core/config"
	"github.com/werejoel/tenancy-core/internal/database"
	"github.com/werejoel/tenancy-core/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService 系统用户服务
// 负责用户注册登录和角色、权限声明管理
type UserService struct{}

// NewUserService 创建用户服务
func NewUserService() *UserService {
	return &UserService{}
}

// TokenClaims JWT 载荷
// 角色和权限声明直接签进令牌，策略校验时不需要查库
type TokenClaims struct {
	UserID   int64               `json:"user_id"`
	Username string              `json:"username"`
	Roles    []string            `json:"roles"`
	Claims   []map[string]string `json:"user_claims"`
	jwt.RegisteredClaims
}

// Register 注册用户
func (s *UserService) Register(ctx context.Context, username, password, name, email string) (*models.SystemUser, error) {
	var count int64
	if err := database.DB.WithContext(ctx).
		Model(&models.SystemUser{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("用户名已存在: %s", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	now := time.Now()
	user := &models.SystemUser{
		Username:       username,
		Password:       string(hash),
		Name:           name,
		Email:          email,
		Status:         true,
		CreateDatetime: &now,
	}
	if err := database.DB.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	return user, nil
}

// Login 登录，校验通过后签发 JWT
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.SystemUser, error) {
	var user models.SystemUser
	err := database.DB.WithContext(ctx).
		Preload("Roles").
		Preload("Claims").
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil, fmt.Errorf("用户名或密码错误")
		}
		return "", nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if !user.Status {
		return "", nil, fmt.Errorf("用户已停用: %s", username)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("用户名或密码错误")
	}

	token, err := s.generateToken(&user)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// generateToken 签发 JWT
func (s *UserService) generateToken(user *models.SystemUser) (string, error) {
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
	}
	claims := make([]map[string]string, 0, len(user.Claims))
	for _, c := range user.Claims {
		claims = append(claims, map[string]string{
			"type":  c.ClaimType,
			"value": c.ClaimValue,
		})
	}

	expire := 24 * time.Hour
	secret := "tenancy-core-secret"
	if config.Cfg != nil {
		if config.Cfg.JWT.Expire > 0 {
			expire = time.Duration(config.Cfg.JWT.Expire) * time.Second
		}
		if config.Cfg.JWT.Secret != "" {
			secret = config.Cfg.JWT.Secret
		}
	}

	tokenClaims := &TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    roles,
		Claims:   claims,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expire)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "tenancy-core",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return signed, nil
}

// GetUser 获取用户详情（含角色和权限声明）
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.SystemUser, error) {
	var user models.SystemUser
	err := database.DB.WithContext(ctx).
		Preload("Roles").
		Preload("Claims").
		First(&user, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("用户不存在: %d", id)
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &user, nil
}

// ListUsers 查询全部用户
func (s *UserService) ListUsers(ctx context.Context) ([]models.SystemUser, error) {
	var users []models.SystemUser
	err := database.DB.WithContext(ctx).
		Preload("Roles").
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return users, nil
}

// UpdateUser 更新用户资料，允许修改的字段由调用方过滤
func (s *UserService) UpdateUser(ctx context.Context, id int64, updates map[string]interface{}) error {
	now := time.Now()
	updates["update_datetime"] = &now

	result := database.DB.WithContext(ctx).
		Model(&models.SystemUser{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("更新用户失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("用户不存在: %d", id)
	}
	return nil
}

// ResetPassword 重置用户密码
func (s *UserService) ResetPassword(ctx context.Context, id int64, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("密码加密失败: %w", err)
	}

	now := time.Now()
	result := database.DB.WithContext(ctx).
		Model(&models.SystemUser{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"password": string(hash), "update_datetime": &now})
	if result.Error != nil {
		return fmt.Errorf("重置密码失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("用户不存在: %d", id)
	}
	return nil
}

// DisableUser 停用用户
func (s *UserService) DisableUser(ctx context.Context, id int64) error {
	now := time.Now()
	result := database.DB.WithContext(ctx).
		Model(&models.SystemUser{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": false, "update_datetime": &now})
	if result.Error != nil {
		return fmt.Errorf("停用用户失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("用户不存在: %d", id)
	}
	return nil
}

// AssignRole 给用户绑定角色，角色不存在时自动创建
func (s *UserService) AssignRole(ctx context.Context, userID int64, roleName string) error {
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.SystemUser
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("用户不存在: %d", userID)
		}

		var role models.Role
		err := tx.Where("name = ?", roleName).First(&role).Error
		if err == gorm.ErrRecordNotFound {
			now := time.Now()
			role = models.Role{Name: roleName, CreateDatetime: &now}
			if err := tx.Create(&role).Error; err != nil {
				return fmt.Errorf("创建角色失败: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("查询角色失败: %w", err)
		}

		var count int64
		if err := tx.Model(&models.UserRole{}).
			Where("user_id = ? AND role_id = ?", userID, role.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("查询用户角色失败: %w", err)
		}
		if count > 0 {
			return nil
		}

		if err := tx.Create(&models.UserRole{UserID: userID, RoleID: role.ID}).Error; err != nil {
			return fmt.Errorf("绑定角色失败: %w", err)
		}
		return nil
	})
}

// RevokeRole 解除用户角色
func (s *UserService) RevokeRole(ctx context.Context, userID int64, roleName string) error {
	var role models.Role
	err := database.DB.WithContext(ctx).Where("name = ?", roleName).First(&role).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("角色不存在: %s", roleName)
		}
		return fmt.Errorf("查询角色失败: %w", err)
	}

	return database.DB.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, role.ID).
		Delete(&models.UserRole{}).Error
}

// AddClaim 给用户添加权限声明
func (s *UserService) AddClaim(ctx context.Context, userID int64, claimType, claimValue string) error {
	var user models.SystemUser
	if err := database.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return fmt.Errorf("用户不存在: %d", userID)
	}

	var count int64
	if err := database.DB.WithContext(ctx).
		Model(&models.UserClaim{}).
		Where("user_id = ? AND claim_type = ? AND claim_value = ?", userID, claimType, claimValue).
		Count(&count).Error; err != nil {
		return fmt.Errorf("查询权限声明失败: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	claim := &models.UserClaim{
		UserID:         userID,
		ClaimType:      claimType,
		ClaimValue:     claimValue,
		CreateDatetime: &now,
	}
	if err := database.DB.WithContext(ctx).Create(claim).Error; err != nil {
		return fmt.Errorf("添加权限声明失败: %w", err)
	}
	return nil
}

// RemoveClaim 移除用户权限声明
func (s *UserService) RemoveClaim(ctx context.Context, userID int64, claimType, claimValue string) error {
	return database.DB.WithContext(ctx).
		Where("user_id = ? AND claim_type = ? AND claim_value = ?", userID, claimType, claimValue).
		Delete(&models.UserClaim{}).Error
}
