package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/werejoel/tenancy-core/internal/middleware"
	"github.com/werejoel/tenancy-core/internal/response"
	"github.com/werejoel/tenancy-core/internal/service"
)

// PaymentController 收款接口
type PaymentController struct {
	paymentService *service.PaymentService
}

// NewPaymentController 创建收款控制器
func NewPaymentController() *PaymentController {
	return &PaymentController{paymentService: service.NewPaymentService()}
}

// RecordPayment 收款入账
// POST /api/v1/payments
func (ctrl *PaymentController) RecordPayment(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, "参数错误: "+err.Error())
		return
	}
	if userID, ok := c.Get(middleware.ContextUserID); ok {
		if id, ok := userID.(int64); ok {
			req.CreatorID = &id
		}
	}

	resp, aerr := ctrl.paymentService.RecordPayment(c.Request.Context(), &req)
	if aerr != nil {
		response.FailWithCode(c, aerr.Code, aerr.Message)
		return
	}
	response.Success(c, resp)
}

// GetPayment 根据收据号查询收款
// GET /api/v1/payments/:receipt_no
func (ctrl *PaymentController) GetPayment(c *gin.Context) {
	receiptNo := c.Param("receipt_no")
	if receiptNo == "" {
		response.Fail(c, 400, "收据号不能为空")
		return
	}

	payment, err := ctrl.paymentService.GetPaymentByReceiptNo(c.Request.Context(), receiptNo)
	if err != nil {
		response.FailWithCode(c, service.ErrCodePaymentNotFound, err.Error())
		return
	}
	response.Success(c, payment)
}

// ListPayments 收款列表
// GET /api/v1/payments?tenant_id=1
func (ctrl *PaymentController) ListPayments(c *gin.Context) {
	tenantID, _ := strconv.ParseInt(c.Query("tenant_id"), 10, 64)

	payments, err := ctrl.paymentService.ListPayments(c.Request.Context(), tenantID)
	if err != nil {
		response.FailWithCode(c, service.ErrCodePersistenceFailure, err.Error())
		return
	}
	response.Success(c, payments)
}
