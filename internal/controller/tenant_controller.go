package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/werejoel/tenancy-core/internal/models"
	"github.com/werejoel/tenancy-core/internal/response"
	"github.com/werejoel/tenancy-core/internal/service"
)

// TenantController 租客与房屋接口
type TenantController struct {
	tenantService *service.TenantService
}

// NewTenantController 创建租客控制器
func NewTenantController() *TenantController {
	return &TenantController{tenantService: service.NewTenantService()}
}

// CreateTenant 新增租客
// POST /api/v1/tenants
func (ctrl *TenantController) CreateTenant(c *gin.Context) {
	var tenant models.Tenant
	if err := c.ShouldBindJSON(&tenant); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}
	if tenant.Name == "" {
		response.Fail(c, 400, "租客姓名不能为空")
		return
	}

	if err := ctrl.tenantService.CreateTenant(c.Request.Context(), &tenant); err != nil {
		response.FailWithCode(c, 2001, err.Error())
		return
	}
	response.Success(c, tenant)
}

// GetTenant 租客详情
// GET /api/v1/tenants/:id
func (ctrl *TenantController) GetTenant(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的租客Id")
		return
	}

	tenant, err := ctrl.tenantService.GetTenant(c.Request.Context(), id)
	if err != nil {
		response.FailWithCode(c, 2002, err.Error())
		return
	}
	response.Success(c, tenant)
}

// UpdateTenant 更新租客
// PUT /api/v1/tenants/:id
func (ctrl *TenantController) UpdateTenant(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的租客Id")
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}
	// 只放行可编辑字段
	allowed := map[string]bool{
		"name": true, "phone": true, "email": true,
		"notify_url": true, "remarks": true, "status": true,
	}
	for key := range updates {
		if !allowed[key] {
			delete(updates, key)
		}
	}
	if len(updates) == 0 {
		response.Fail(c, 400, "没有可更新的字段")
		return
	}

	if err := ctrl.tenantService.UpdateTenant(c.Request.Context(), id, updates); err != nil {
		response.FailWithCode(c, 2003, err.Error())
		return
	}
	response.SuccessWithMessage(c, "更新成功", nil)
}

// ListTenants 租客列表
// GET /api/v1/tenants?page=1&page_size=20
func (ctrl *TenantController) ListTenants(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	tenants, total, err := ctrl.tenantService.ListTenants(c.Request.Context(), page, pageSize)
	if err != nil {
		response.FailWithCode(c, 2004, err.Error())
		return
	}
	response.Success(c, gin.H{
		"list":  tenants,
		"total": total,
		"page":  page,
	})
}

// CreateHouse 新增房屋
// POST /api/v1/houses
func (ctrl *TenantController) CreateHouse(c *gin.Context) {
	var house models.House
	if err := c.ShouldBindJSON(&house); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}
	if house.Code == "" || house.Address == "" {
		response.Fail(c, 400, "房屋编号和地址不能为空")
		return
	}

	if err := ctrl.tenantService.CreateHouse(c.Request.Context(), &house); err != nil {
		response.FailWithCode(c, 2005, err.Error())
		return
	}
	response.Success(c, house)
}

// GetHouse 房屋详情
// GET /api/v1/houses/:id
func (ctrl *TenantController) GetHouse(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的房屋Id")
		return
	}

	house, err := ctrl.tenantService.GetHouse(c.Request.Context(), id)
	if err != nil {
		response.FailWithCode(c, 2006, err.Error())
		return
	}
	response.Success(c, house)
}

// ListHouses 房屋列表
// GET /api/v1/houses?occupied=true
func (ctrl *TenantController) ListHouses(c *gin.Context) {
	var occupied *bool
	if v := c.Query("occupied"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.Fail(c, 400, "无效的出租状态")
			return
		}
		occupied = &b
	}

	houses, err := ctrl.tenantService.ListHouses(c.Request.Context(), occupied)
	if err != nil {
		response.FailWithCode(c, 2007, err.Error())
		return
	}
	response.Success(c, houses)
}

// DeleteHouse 删除房屋
// DELETE /api/v1/houses/:id
func (ctrl *TenantController) DeleteHouse(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的房屋Id")
		return
	}

	if err := ctrl.tenantService.DeleteHouse(c.Request.Context(), id); err != nil {
		response.FailWithCode(c, 2008, err.Error())
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}
