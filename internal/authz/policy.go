package authz

import "fmt"

// ClaimTypePermission 权限声明类型
const ClaimTypePermission = "Permission"

// Claim 权限声明 (类型, 值) 二元组
type Claim struct {
	Type  string
	Value string
}

// Principal 鉴权主体：角色集合 + 声明集合
// 从 JWT 载荷或用户表构建，对策略求值时只读
type Principal struct {
	roles  map[string]struct{}
	claims map[Claim]struct{}
}

// NewPrincipal 构建鉴权主体
func NewPrincipal(roles []string, claims []Claim) *Principal {
	p := &Principal{
		roles:  make(map[string]struct{}, len(roles)),
		claims: make(map[Claim]struct{}, len(claims)),
	}
	for _, r := range roles {
		p.roles[r] = struct{}{}
	}
	for _, c := range claims {
		p.claims[c] = struct{}{}
	}
	return p
}

// HasRole 是否拥有角色
func (p *Principal) HasRole(role string) bool {
	_, ok := p.roles[role]
	return ok
}

// HasClaim 是否拥有指定 (类型, 值) 声明
func (p *Principal) HasClaim(claimType, claimValue string) bool {
	_, ok := p.claims[Claim{Type: claimType, Value: claimValue}]
	return ok
}

// HasClaimType 是否拥有指定类型的任意声明
func (p *Principal) HasClaimType(claimType string) bool {
	for c := range p.claims {
		if c.Type == claimType {
			return true
		}
	}
	return false
}

// HasPermission 是否拥有 Permission 类型的指定声明
func (p *Principal) HasPermission(value string) bool {
	return p.HasClaim(ClaimTypePermission, value)
}

// PolicyFunc 策略谓词：对主体求值返回是否放行
type PolicyFunc func(p *Principal) bool

// 策略名常量
const (
	PolicyViewUsers        = "ViewUsersPolicy"
	PolicyAddUser          = "AddUserPolicy"
	PolicyEditUser         = "EditUserPolicy"
	PolicyDeleteUser       = "DeleteUserPolicy"
	PolicyManageUsers      = "ManageUsersPolicy"
	PolicyManageRoles      = "ManageRolesPolicy"
	PolicyManageUserClaims = "ManageUserClaimsPolicy"
)

// policies 策略表：策略名 -> 布尔谓词
// 每条策略是角色与权限声明上的固定布尔表达式
var policies = map[string]PolicyFunc{
	PolicyViewUsers: func(p *Principal) bool {
		return p.HasRole("Admin") || p.HasRole("Manager") || p.HasPermission("ViewUsers")
	},
	PolicyAddUser: func(p *Principal) bool {
		return p.HasRole("Admin") || p.HasPermission("AddUser")
	},
	PolicyEditUser: func(p *Principal) bool {
		return p.HasRole("Admin") || p.HasPermission("EditUser")
	},
	PolicyDeleteUser: func(p *Principal) bool {
		return p.HasRole("Admin") && p.HasPermission("DeleteUser")
	},
	PolicyManageUsers: func(p *Principal) bool {
		return p.HasRole("Admin") || p.HasPermission("EditUser") || p.HasPermission("ManageUsers")
	},
	PolicyManageRoles: func(p *Principal) bool {
		return p.HasRole("Admin") &&
			p.HasClaimType("AddRole") &&
			p.HasClaimType("EditRole") &&
			p.HasClaimType("DeleteRole")
	},
	PolicyManageUserClaims: func(p *Principal) bool {
		return p.HasRole("Admin") || p.HasPermission("ManageUserClaims")
	},
}

// Evaluate 对命名策略求值
// 未注册的策略名视为配置错误返回 error，而不是静默拒绝
func Evaluate(name string, p *Principal) (bool, error) {
	fn, ok := policies[name]
	if !ok {
		return false, fmt.Errorf("未注册的策略: %s", name)
	}
	return fn(p), nil
}

// PolicyNames 返回所有已注册策略名
func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	return names
}
