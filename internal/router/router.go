package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tohfa-market/internal/authz"
	"github.com/tohfa-market/internal/cache"
	"github.com/tohfa-market/internal/config"
	adminhandlers "github.com/tohfa-market/internal/http/handlers/admin"
	publichandlers "github.com/tohfa-market/internal/http/handlers/public"
	"github.com/tohfa-market/internal/http/response"
	"github.com/tohfa-market/internal/logger"
	"github.com/tohfa-market/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "tm"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}
	orderRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:order", redisPrefix),
		WindowSeconds: cfg.Security.OrderRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.OrderRateLimit.MaxAttempts,
		MessageKey:    "error.order_too_many",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 静态文件服务（上传的商品图片）
	r.Static("/uploads", "./uploads")

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/categories", publicHandler.ListCategories)
			public.GET("/categories/:id/variant-types", publicHandler.GetCategoryVariantTypes)
			public.GET("/products", publicHandler.ListProducts)
			public.GET("/products/:slug", publicHandler.GetProductDetail)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.UserProfile)
			user.PUT("/me/profile", publicHandler.UserUpdateProfile)
			user.PUT("/me/password", publicHandler.UserChangePassword)
			user.GET("/me/login-logs", publicHandler.UserLoginLogs)

			user.GET("/cart", publicHandler.CartList)
			user.POST("/cart/items", publicHandler.CartUpsert)
			user.PATCH("/cart/items/:id", publicHandler.CartUpdateQuantity)
			user.DELETE("/cart/items/:id", publicHandler.CartRemove)
			user.DELETE("/cart", publicHandler.CartClear)

			user.POST("/orders", RateLimitMiddleware(redisClient, orderRule, KeyByIP), publicHandler.OrderCreate)
			user.GET("/orders", publicHandler.OrderList)
			user.GET("/orders/:id", publicHandler.OrderDetail)
			user.POST("/orders/:id/cancel", publicHandler.OrderCancel)

			user.GET("/wallet", publicHandler.WalletAccount)
			user.GET("/wallet/transactions", publicHandler.WalletTransactions)
			user.POST("/wallet/withdraw", publicHandler.WalletWithdraw)

			user.GET("/notifications", publicHandler.NotificationList)
			user.GET("/notifications/unread-count", publicHandler.NotificationUnreadCount)
			user.POST("/notifications/:id/read", publicHandler.NotificationMarkRead)
			user.POST("/notifications/read-all", publicHandler.NotificationMarkAllRead)

			// 卖家接口
			user.GET("/seller/products", publicHandler.SellerProductList)
			user.POST("/seller/products", publicHandler.SellerProductCreate)
			user.PUT("/seller/products/:id", publicHandler.SellerProductUpdate)
			user.DELETE("/seller/products/:id", publicHandler.SellerProductDelete)
			user.GET("/seller/products/:id/selections", publicHandler.SellerSelectionList)
			user.POST("/seller/products/:id/selections", publicHandler.SellerSelectionUpsert)
			user.DELETE("/seller/selections/:selection_id", publicHandler.SellerSelectionDelete)
			user.PUT("/seller/products/:id/combination-stocks", publicHandler.SellerSetCombinationStocks)
			user.GET("/seller/order-items", publicHandler.SellerOrderItems)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.AdminJWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/profile", adminHandler.GetAdminProfile)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 分类与规格管理
				authorized.GET("/categories", adminHandler.AdminListCategories)
				authorized.POST("/categories", adminHandler.AdminCreateCategory)
				authorized.PUT("/categories/:id", adminHandler.AdminUpdateCategory)
				authorized.DELETE("/categories/:id", adminHandler.AdminDeleteCategory)
				authorized.GET("/categories/:id/variant-types", adminHandler.AdminGetCategoryVariantTypes)
				authorized.POST("/categories/:id/variant-types", adminHandler.AdminRegisterVariantType)
				authorized.PUT("/variant-types/:id", adminHandler.AdminUpdateVariantType)
				authorized.DELETE("/variant-types/:id", adminHandler.AdminDeleteVariantType)
				authorized.POST("/variant-types/:id/options", adminHandler.AdminAddVariantOption)
				authorized.PUT("/variant-options/:id", adminHandler.AdminUpdateVariantOption)
				authorized.DELETE("/variant-options/:id", adminHandler.AdminDeleteVariantOption)

				// 商品审核
				authorized.GET("/products", adminHandler.AdminListProducts)
				authorized.GET("/products/:id", adminHandler.AdminGetProduct)
				authorized.PATCH("/products/:id/approval", adminHandler.AdminSetProductApproval)

				// 历史规格迁移
				authorized.POST("/migrations/legacy-variants", adminHandler.AdminMigrateLegacyVariants)
				authorized.POST("/migrations/legacy-variants/:id", adminHandler.AdminMigrateProductLegacyVariants)

				// 订单管理
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
				authorized.PATCH("/orders/:id/status", adminHandler.AdminUpdateOrderStatus)
				authorized.POST("/orders/:id/cancel", adminHandler.AdminCancelOrder)

				// 用户管理
				authorized.GET("/users", adminHandler.GetAdminUsers)
				authorized.GET("/users/:id", adminHandler.GetAdminUser)
				authorized.PUT("/users/:id", adminHandler.UpdateAdminUser)
				authorized.PUT("/users/batch-status", adminHandler.BatchUpdateUserStatus)
				authorized.GET("/user-login-logs", adminHandler.GetUserLoginLogs)

				// 钱包管理
				authorized.GET("/wallets/:user_id", adminHandler.GetAdminUserWallet)
				authorized.GET("/wallets/:user_id/transactions", adminHandler.GetAdminUserWalletTransactions)
				authorized.POST("/wallets/:user_id/adjust", adminHandler.AdjustAdminUserWallet)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.GET("/authz/audit-logs", adminHandler.ListAuthzAuditLogs)
				authorized.POST("/authz/admins", adminHandler.CreateAuthzAdmin)
				authorized.PUT("/authz/admins/:id", adminHandler.UpdateAuthzAdmin)
				authorized.DELETE("/authz/admins/:id", adminHandler.DeleteAuthzAdmin)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
