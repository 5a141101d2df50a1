package controller

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/werejoel/tenancy-core/internal/models"
	"github.com/werejoel/tenancy-core/internal/response"
	"github.com/werejoel/tenancy-core/internal/service"
)

// LeaseController 租约接口
type LeaseController struct {
	leaseService *service.LeaseService
}

// NewLeaseController 创建租约控制器
func NewLeaseController() *LeaseController {
	return &LeaseController{leaseService: service.NewLeaseService()}
}

// CreateLeaseRequest 签约请求
type CreateLeaseRequest struct {
	TenantID    int64           `json:"tenantId" binding:"required"`
	HouseID     int64           `json:"houseId" binding:"required"`
	StartDate   string          `json:"startDate" binding:"required"`
	EndDate     string          `json:"endDate"`
	MonthlyRent decimal.Decimal `json:"monthlyRent"`
	Deposit     decimal.Decimal `json:"deposit"`
	Remarks     string          `json:"remarks"`
}

// CreateLease 签约
// POST /api/v1/leases
func (ctrl *LeaseController) CreateLease(c *gin.Context) {
	var req CreateLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		response.Fail(c, 400, "起租日格式错误")
		return
	}

	lease := &models.Lease{
		TenantID:    req.TenantID,
		HouseID:     req.HouseID,
		StartDate:   startDate,
		MonthlyRent: req.MonthlyRent,
		Deposit:     req.Deposit,
		Remarks:     req.Remarks,
	}
	if req.EndDate != "" {
		endDate, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			response.Fail(c, 400, "到期日格式错误")
			return
		}
		lease.EndDate = &endDate
	}

	if err := ctrl.leaseService.CreateLease(c.Request.Context(), lease); err != nil {
		response.FailWithCode(c, 3001, err.Error())
		return
	}
	response.Success(c, lease)
}

// GetLease 租约详情
// GET /api/v1/leases/:id
func (ctrl *LeaseController) GetLease(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的租约Id")
		return
	}

	lease, err := ctrl.leaseService.GetLease(c.Request.Context(), id)
	if err != nil {
		response.FailWithCode(c, 3002, err.Error())
		return
	}
	response.Success(c, lease)
}

// ListLeases 租约列表
// GET /api/v1/leases?tenant_id=1&active=true
func (ctrl *LeaseController) ListLeases(c *gin.Context) {
	tenantID, _ := strconv.ParseInt(c.Query("tenant_id"), 10, 64)
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))

	leases, err := ctrl.leaseService.ListLeases(c.Request.Context(), tenantID, activeOnly)
	if err != nil {
		response.FailWithCode(c, 3003, err.Error())
		return
	}
	response.Success(c, leases)
}

// TerminateLeaseRequest 退租请求
type TerminateLeaseRequest struct {
	EndDate string `json:"endDate"`
}

// TerminateLease 退租
// POST /api/v1/leases/:id/terminate
func (ctrl *LeaseController) TerminateLease(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的租约Id")
		return
	}

	var req TerminateLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}

	endDate := time.Now()
	if req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			response.Fail(c, 400, "退租日格式错误")
			return
		}
		endDate = parsed
	}

	if err := ctrl.leaseService.TerminateLease(c.Request.Context(), id, endDate); err != nil {
		response.FailWithCode(c, 3004, err.Error())
		return
	}
	response.SuccessWithMessage(c, "退租成功", nil)
}
