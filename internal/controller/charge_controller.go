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

// ChargeController 账单接口
type ChargeController struct {
	chargeService *service.ChargeService
}

// NewChargeController 创建账单控制器
func NewChargeController() *ChargeController {
	return &ChargeController{chargeService: service.NewChargeService()}
}

// CreateChargeRequest 手工开账单请求
type CreateChargeRequest struct {
	TenantID    int64           `json:"tenantId" binding:"required"`
	HouseID     int64           `json:"houseId" binding:"required"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	DueDate     string          `json:"dueDate" binding:"required"`
}

// CreateCharge 手工开账单
// POST /api/v1/charges
func (ctrl *ChargeController) CreateCharge(c *gin.Context) {
	var req CreateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}
	if !req.Amount.GreaterThan(decimal.Zero) {
		response.Fail(c, 400, "账单金额必须大于零")
		return
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		response.Fail(c, 400, "到期日格式错误")
		return
	}

	charge := &models.Charge{
		TenantID:    req.TenantID,
		HouseID:     req.HouseID,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     dueDate,
	}
	if err := ctrl.chargeService.CreateCharge(c.Request.Context(), charge); err != nil {
		response.FailWithCode(c, 4001, err.Error())
		return
	}
	response.Success(c, charge)
}

// GetCharge 账单详情
// GET /api/v1/charges/:id
func (ctrl *ChargeController) GetCharge(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的账单Id")
		return
	}

	charge, err := ctrl.chargeService.GetCharge(c.Request.Context(), id)
	if err != nil {
		response.FailWithCode(c, 4002, err.Error())
		return
	}
	response.Success(c, charge)
}

// ListCharges 账单列表
// GET /api/v1/charges?tenant_id=1&status=0
func (ctrl *ChargeController) ListCharges(c *gin.Context) {
	tenantID, _ := strconv.ParseInt(c.Query("tenant_id"), 10, 64)

	var status *int
	if v := c.Query("status"); v != "" {
		s, err := strconv.Atoi(v)
		if err != nil || s < models.ChargeStatusUnpaid || s > models.ChargeStatusPaid {
			response.Fail(c, 400, "无效的账单状态")
			return
		}
		status = &s
	}

	charges, err := ctrl.chargeService.ListCharges(c.Request.Context(), tenantID, status)
	if err != nil {
		response.FailWithCode(c, 4003, err.Error())
		return
	}
	response.Success(c, charges)
}

// GetArrears 租客欠款汇总
// GET /api/v1/tenants/:id/arrears
func (ctrl *ChargeController) GetArrears(c *gin.Context) {
	tenantID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, 400, "无效的租客Id")
		return
	}

	arrears, err := ctrl.chargeService.GetArrears(c.Request.Context(), tenantID)
	if err != nil {
		response.FailWithCode(c, 4004, err.Error())
		return
	}
	response.Success(c, arrears)
}
