package models

import "time"

// SystemUser 系统用户模型
type SystemUser struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string     `gorm:"uniqueIndex;type:varchar(64);not null;comment:用户名" json:"username"`
	Password       string     `gorm:"type:varchar(128);not null;comment:密码哈希" json:"-"`
	Name           string     `gorm:"type:varchar(128);comment:姓名" json:"name,omitempty"`
	Email          string     `gorm:"type:varchar(128);comment:邮箱" json:"email,omitempty"`
	Status         bool       `gorm:"not null;comment:状态" json:"status"`
	CreateDatetime *time.Time `gorm:"comment:创建时间" json:"create_datetime,omitempty"`
	UpdateDatetime *time.Time `gorm:"comment:修改时间" json:"update_datetime,omitempty"`

	// 关联关系
	Roles  []Role      `gorm:"many2many:tms_user_role;joinForeignKey:UserID;joinReferences:RoleID" json:"roles,omitempty"`
	Claims []UserClaim `gorm:"foreignKey:UserID" json:"claims,omitempty"`
}

// TableName 指定表名
func (SystemUser) TableName() string {
	return "tms_system_user"
}

// Role 角色模型
type Role struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string     `gorm:"uniqueIndex;type:varchar(64);not null;comment:角色名" json:"name"`
	Remarks        string     `gorm:"type:varchar(255);comment:备注" json:"remarks,omitempty"`
	CreateDatetime *time.Time `gorm:"comment:创建时间" json:"create_datetime,omitempty"`
}

// TableName 指定表名
func (Role) TableName() string {
	return "tms_role"
}

// 内置角色名常量
const (
	RoleAdmin   = "Admin"   // 管理员
	RoleManager = "Manager" // 经理
)

// UserRole 用户角色关联
type UserRole struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"index;not null;comment:用户ID" json:"user_id"`
	RoleID int64 `gorm:"index;not null;comment:角色ID" json:"role_id"`
}

// TableName 指定表名
func (UserRole) TableName() string {
	return "tms_user_role"
}

// UserClaim 用户权限声明模型
// 一条声明是 (类型, 值) 二元组，例如 (Permission, EditUser)
type UserClaim struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64      `gorm:"index;not null;comment:用户ID" json:"user_id"`
	ClaimType      string     `gorm:"type:varchar(64);not null;comment:声明类型" json:"claim_type"`
	ClaimValue     string     `gorm:"type:varchar(128);comment:声明值" json:"claim_value,omitempty"`
	CreateDatetime *time.Time `gorm:"comment:创建时间" json:"create_datetime,omitempty"`

	// 关联关系
	User *SystemUser `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (UserClaim) TableName() string {
	return "tms_user_claim"
}
