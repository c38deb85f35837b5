package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 用户类型常量
const (
	UserTypeCustomer = "customer"
	UserTypeArtist   = "artist"
	UserTypeStore    = "store"
	UserTypeAdmin    = "admin"
)

// 用户账号状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 登录日志常量
const (
	LoginLogStatusSuccess = "success"
	LoginLogStatusFailed  = "failed"

	LoginLogSourceWeb = "web"

	LoginLogFailReasonBadRequest         = "bad_request"
	LoginLogFailReasonInvalidEmail       = "invalid_email"
	LoginLogFailReasonInvalidCredentials = "invalid_credentials"
	LoginLogFailReasonUserDisabled       = "user_disabled"
	LoginLogFailReasonRateLimited        = "rate_limited"
	LoginLogFailReasonInternalError      = "internal_error"
)

// 商品审核状态常量
const (
	ProductApprovalPending  = "pending"
	ProductApprovalApproved = "approved"
	ProductApprovalRejected = "rejected"
)

// 钱包交易类型常量
const (
	WalletTxnTypeOrderEarning = "order_earning"
	WalletTxnTypeOrderRefund  = "order_refund"
	WalletTxnTypeWithdrawal   = "withdrawal"
	WalletTxnTypeAdminAdjust  = "admin_adjust"
)

// 钱包交易方向常量
const (
	WalletTxnDirectionIn  = "in"
	WalletTxnDirectionOut = "out"
)

// 通知类型常量
const (
	NotificationTypeOrderStatus     = "order_status"
	NotificationTypeProductApproval = "product_approval"
	NotificationTypeStockOut        = "stock_out"
)

// 异步任务常量
const (
	QueueDefault              = "default"
	TaskOrderStatusNotify     = "order:status_notify"
	TaskProductApprovalNotify = "product:approval_notify"
)

// 类目继承相关常量
const (
	// MaxCategoryDepth 类目父链遍历的最大深度（防御脏数据形成的环）
	MaxCategoryDepth = 8
)

// 埃及省份编号范围（配送费表的键空间，"1".."27"）
const (
	GovernorateMinID = 1
	GovernorateMaxID = 27
)
