package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func perm(value string) Claim {
	return Claim{Type: ClaimTypePermission, Value: value}
}

// TestEvaluate_ViewUsersPolicy 测试查看用户策略
func TestEvaluate_ViewUsersPolicy(t *testing.T) {
	cases := []struct {
		name   string
		roles  []string
		claims []Claim
		want   bool
	}{
		{"Admin角色放行", []string{"Admin"}, nil, true},
		{"Manager角色放行", []string{"Manager"}, nil, true},
		{"ViewUsers声明放行", nil, []Claim{perm("ViewUsers")}, true},
		{"无角色无声明拒绝", nil, nil, false},
		{"无关声明拒绝", nil, []Claim{perm("EditUser")}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := Evaluate(PolicyViewUsers, NewPrincipal(tc.roles, tc.claims))
			assert.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

// TestEvaluate_AddEditUserPolicy 测试新增/编辑用户策略
func TestEvaluate_AddEditUserPolicy(t *testing.T) {
	// Admin ∨ claim(Permission,AddUser)
	ok, err := Evaluate(PolicyAddUser, NewPrincipal([]string{"Admin"}, nil))
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, _ = Evaluate(PolicyAddUser, NewPrincipal(nil, []Claim{perm("AddUser")}))
	assert.True(t, ok)

	// Manager 角色本身不满足 AddUserPolicy
	ok, _ = Evaluate(PolicyAddUser, NewPrincipal([]string{"Manager"}, nil))
	assert.False(t, ok)

	// Admin ∨ claim(Permission,EditUser)
	ok, _ = Evaluate(PolicyEditUser, NewPrincipal(nil, []Claim{perm("EditUser")}))
	assert.True(t, ok)

	ok, _ = Evaluate(PolicyEditUser, NewPrincipal(nil, []Claim{perm("AddUser")}))
	assert.False(t, ok)
}

// TestEvaluate_DeleteUserPolicy 测试删除用户策略（角色与声明同时要求）
func TestEvaluate_DeleteUserPolicy(t *testing.T) {
	// Admin ∧ claim(Permission,DeleteUser)：两者缺一不可
	ok, err := Evaluate(PolicyDeleteUser, NewPrincipal([]string{"Admin"}, []Claim{perm("DeleteUser")}))
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, _ = Evaluate(PolicyDeleteUser, NewPrincipal([]string{"Admin"}, nil))
	assert.False(t, ok)

	ok, _ = Evaluate(PolicyDeleteUser, NewPrincipal(nil, []Claim{perm("DeleteUser")}))
	assert.False(t, ok)
}

// TestEvaluate_ManageUsersPolicy 测试用户管理策略
func TestEvaluate_ManageUsersPolicy(t *testing.T) {
	ok, _ := Evaluate(PolicyManageUsers, NewPrincipal([]string{"Admin"}, nil))
	assert.True(t, ok)

	ok, _ = Evaluate(PolicyManageUsers, NewPrincipal(nil, []Claim{perm("EditUser")}))
	assert.True(t, ok)

	ok, _ = Evaluate(PolicyManageUsers, NewPrincipal(nil, []Claim{perm("ManageUsers")}))
	assert.True(t, ok)

	ok, _ = Evaluate(PolicyManageUsers, NewPrincipal([]string{"Manager"}, nil))
	assert.False(t, ok)
}

// TestEvaluate_ManageRolesPolicy 测试角色管理策略（按声明类型匹配）
func TestEvaluate_ManageRolesPolicy(t *testing.T) {
	full := []Claim{
		{Type: "AddRole", Value: "true"},
		{Type: "EditRole", Value: "true"},
		{Type: "DeleteRole", Value: "true"},
	}

	ok, err := Evaluate(PolicyManageRoles, NewPrincipal([]string{"Admin"}, full))
	assert.NoError(t, err)
	assert.True(t, ok)

	// 声明值不参与匹配，只看类型
	ok, _ = Evaluate(PolicyManageRoles, NewPrincipal([]string{"Admin"}, []Claim{
		{Type: "AddRole", Value: "x"},
		{Type: "EditRole", Value: "y"},
		{Type: "DeleteRole", Value: ""},
	}))
	assert.True(t, ok)

	// 缺任意一种声明类型即拒绝
	ok, _ = Evaluate(PolicyManageRoles, NewPrincipal([]string{"Admin"}, full[:2]))
	assert.False(t, ok)

	// 没有 Admin 角色即拒绝
	ok, _ = Evaluate(PolicyManageRoles, NewPrincipal([]string{"Manager"}, full))
	assert.False(t, ok)
}

// TestEvaluate_ManageUserClaimsPolicy 测试声明管理策略
func TestEvaluate_ManageUserClaimsPolicy(t *testing.T) {
	ok, _ := Evaluate(PolicyManageUserClaims, NewPrincipal([]string{"Admin"}, nil))
	assert.True(t, ok)

	ok, _ = Evaluate(PolicyManageUserClaims, NewPrincipal(nil, []Claim{perm("ManageUserClaims")}))
	assert.True(t, ok)

	ok, _ = Evaluate(PolicyManageUserClaims, NewPrincipal(nil, nil))
	assert.False(t, ok)
}

// TestEvaluate_UnknownPolicy 测试未注册策略
func TestEvaluate_UnknownPolicy(t *testing.T) {
	ok, err := Evaluate("NoSuchPolicy", NewPrincipal([]string{"Admin"}, nil))
	assert.Error(t, err)
	assert.False(t, ok)
}

// TestPolicyNames 测试策略表完整性
func TestPolicyNames(t *testing.T) {
	names := PolicyNames()
	assert.Len(t, names, 7)
	assert.Contains(t, names, PolicyViewUsers)
	assert.Contains(t, names, PolicyDeleteUser)
	assert.Contains(t, names, PolicyManageRoles)
}
