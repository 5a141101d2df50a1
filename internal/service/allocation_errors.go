package service

// AllocationError 收款分配错误
type AllocationError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *AllocationError) Error() string {
	return e.Message
}

// 收款分配错误码定义
const (
	ErrCodePaymentAmountInvalid = 8101
	ErrCodeTenantNotFound       = 8102
	ErrCodeTenantDisabled       = 8103
	ErrCodeHouseNotFound        = 8104
	ErrCodeReferenceExists      = 8105
	ErrCodeConcurrencyConflict  = 8106
	ErrCodePersistenceFailure   = 8107
	ErrCodePaymentNotFound      = 8108
	ErrCodeChargeNotFound       = 8109
	ErrCodeSystemBusy           = 9999
)

// 错误消息定义
var (
	ErrPaymentAmountInvalid = &AllocationError{Code: ErrCodePaymentAmountInvalid, Message: "收款金额必须大于0"}
	ErrTenantNotFound       = &AllocationError{Code: ErrCodeTenantNotFound, Message: "租客不存在"}
	ErrTenantDisabled       = &AllocationError{Code: ErrCodeTenantDisabled, Message: "租客已被停用,请联系管理员"}
	ErrHouseNotFound        = &AllocationError{Code: ErrCodeHouseNotFound, Message: "房屋不存在"}
	ErrReferenceExists      = &AllocationError{Code: ErrCodeReferenceExists, Message: "外部流水号已存在"}
	ErrConcurrencyConflict  = &AllocationError{Code: ErrCodeConcurrencyConflict, Message: "账单已被其他请求修改,请重试"}
	ErrPaymentNotFound      = &AllocationError{Code: ErrCodePaymentNotFound, Message: "收款记录不存在"}
	ErrSystemBusy           = &AllocationError{Code: ErrCodeSystemBusy, Message: "系统繁忙,请稍后重试"}
)

// NewAllocationError 创建新的收款分配错误
func NewAllocationError(code int, message string) *AllocationError {
	return &AllocationError{Code: code, Message: message}
}
