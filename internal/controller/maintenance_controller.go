package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/werejoel/tenancy-core/internal/models"
	"github.com/werejoel/tenancy-core/internal/response"
	"github.com/werejoel/tenancy-core/internal/service"
)

// MaintenanceController 维修工单接口
type MaintenanceController struct {
	maintenanceService *service.MaintenanceService
}

// NewMaintenanceController 创建维修工单控制器
func NewMaintenanceController() *MaintenanceController {
	return &MaintenanceController{maintenanceService: service.NewMaintenanceService()}
}

// CreateRequest 提交报修
// POST /api/v1/maintenance
func (ctrl *MaintenanceController) CreateRequest(c *gin.Context) {
	var req models.MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}
	if req.TenantID == 0 || req.HouseID == 0 || req.Description == "" {
		response.Fail(c, 400, "租客、房屋和报修内容不能为空")
		return
	}

	if err := ctrl.maintenanceService.CreateRequest(c.Request.Context(), &req); err != nil {
		response.FailWithCode(c, 5001, err.Error())
		return
	}
	response.Success(c, req)
}

// GetRequest 工单详情
// GET /api/v1/maintenance/:id
func (ctrl *MaintenanceController) GetRequest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的工单Id")
		return
	}

	req, err := ctrl.maintenanceService.GetRequest(c.Request.Context(), id)
	if err != nil {
		response.FailWithCode(c, 5002, err.Error())
		return
	}
	response.Success(c, req)
}

// ListRequests 工单列表
// GET /api/v1/maintenance?house_id=1&status=0
func (ctrl *MaintenanceController) ListRequests(c *gin.Context) {
	houseID, _ := strconv.ParseInt(c.Query("house_id"), 10, 64)

	var status *int
	if v := c.Query("status"); v != "" {
		s, err := strconv.Atoi(v)
		if err != nil {
			response.Fail(c, 400, "无效的工单状态")
			return
		}
		status = &s
	}

	requests, err := ctrl.maintenanceService.ListRequests(c.Request.Context(), houseID, status)
	if err != nil {
		response.FailWithCode(c, 5003, err.Error())
		return
	}
	response.Success(c, requests)
}

// UpdateStatusRequest 工单状态更新请求
type UpdateStatusRequest struct {
	Status  int    `json:"status" binding:"min=0,max=3"`
	Remarks string `json:"remarks"`
}

// UpdateStatus 推进工单状态
// PUT /api/v1/maintenance/:id/status
func (ctrl *MaintenanceController) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的工单Id")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}

	if err := ctrl.maintenanceService.UpdateStatus(c.Request.Context(), id, req.Status, req.Remarks); err != nil {
		response.FailWithCode(c, 5004, err.Error())
		return
	}
	response.SuccessWithMessage(c, "更新成功", nil)
}
