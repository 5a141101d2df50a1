package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/werejoel/tenancy-core/config"
	"github.com/werejoel/tenancy-core/internal/authz"
	"github.com/werejoel/tenancy-core/internal/controller"
	"github.com/werejoel/tenancy-core/internal/middleware"
	"github.com/werejoel/tenancy-core/internal/response"
)

// Setup 组装路由
func Setup() *gin.Engine {
	if config.Cfg != nil && config.Cfg.App.Mode != "" {
		gin.SetMode(config.Cfg.App.Mode)
	}

	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Cors())
	r.Use(middleware.Metrics())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	// 指标端点，仅白名单网段可访问
	r.GET("/metrics", middleware.MetricsAuth(), gin.WrapH(promhttp.Handler()))

	authController := controller.NewAuthController()
	tenantController := controller.NewTenantController()
	leaseController := controller.NewLeaseController()
	chargeController := controller.NewChargeController()
	paymentController := controller.NewPaymentController()
	maintenanceController := controller.NewMaintenanceController()
	userController := controller.NewUserController()

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authController.Register)
			auth.POST("/login", authController.Login)
		}

		authed := v1.Group("")
		authed.Use(middleware.Auth())
		{
			tenants := authed.Group("/tenants")
			{
				tenants.POST("", tenantController.CreateTenant)
				tenants.GET("", tenantController.ListTenants)
				tenants.GET("/:id", tenantController.GetTenant)
				tenants.PUT("/:id", tenantController.UpdateTenant)
				tenants.GET("/:id/arrears", chargeController.GetArrears)
			}

			houses := authed.Group("/houses")
			{
				houses.POST("", tenantController.CreateHouse)
				houses.GET("", tenantController.ListHouses)
				houses.GET("/:id", tenantController.GetHouse)
				houses.DELETE("/:id", tenantController.DeleteHouse)
			}

			leases := authed.Group("/leases")
			{
				leases.POST("", leaseController.CreateLease)
				leases.GET("", leaseController.ListLeases)
				leases.GET("/:id", leaseController.GetLease)
				leases.POST("/:id/terminate", leaseController.TerminateLease)
			}

			charges := authed.Group("/charges")
			{
				charges.POST("", chargeController.CreateCharge)
				charges.GET("", chargeController.ListCharges)
				charges.GET("/:id", chargeController.GetCharge)
			}

			payments := authed.Group("/payments")
			{
				payments.POST("", paymentController.RecordPayment)
				payments.GET("", paymentController.ListPayments)
				payments.GET("/:receipt_no", paymentController.GetPayment)
			}

			maintenance := authed.Group("/maintenance")
			{
				maintenance.POST("", maintenanceController.CreateRequest)
				maintenance.GET("", maintenanceController.ListRequests)
				maintenance.GET("/:id", maintenanceController.GetRequest)
				maintenance.PUT("/:id/status", maintenanceController.UpdateStatus)
			}

			// 用户管理按策略控制
			users := authed.Group("/users")
			{
				users.GET("", middleware.RequirePolicy(authz.PolicyViewUsers), userController.ListUsers)
				users.GET("/:id", middleware.RequirePolicy(authz.PolicyViewUsers), userController.GetUser)
				users.POST("", middleware.RequirePolicy(authz.PolicyAddUser), userController.CreateUser)
				users.PUT("/:id", middleware.RequirePolicy(authz.PolicyEditUser), userController.UpdateUser)
				users.PUT("/:id/password", middleware.RequirePolicy(authz.PolicyManageUsers), userController.ResetPassword)
				users.DELETE("/:id", middleware.RequirePolicy(authz.PolicyDeleteUser), userController.DisableUser)
				users.POST("/:id/roles", middleware.RequirePolicy(authz.PolicyManageRoles), userController.AssignRole)
				users.DELETE("/:id/roles", middleware.RequirePolicy(authz.PolicyManageRoles), userController.RevokeRole)
				users.POST("/:id/claims", middleware.RequirePolicy(authz.PolicyManageUserClaims), userController.AddClaim)
				users.DELETE("/:id/claims", middleware.RequirePolicy(authz.PolicyManageUserClaims), userController.RemoveClaim)
			}
		}
	}

	return r
}
