package i18n

// messages 文案目录（en 为回退语言）
var messages = map[string]map[string]string{
	"en": {
		"success": "success",

		"error.bad_request":    "invalid request",
		"error.unauthorized":   "authentication required",
		"error.forbidden":      "permission denied",
		"error.not_found":      "resource not found",
		"error.conflict_retry": "concurrent update detected, please retry",
		"error.internal":       "internal server error",

		"error.validation_failed":       "validation failed",
		"error.category_not_found":      "category not found",
		"error.product_not_found":       "product not found",
		"error.variant_type_not_found":  "variant type not found",
		"error.option_not_found":        "variant option not found",
		"error.order_not_found":         "order not found",
		"error.user_not_found":          "user not found",
		"error.cart_item_not_found":     "cart item not found",
		"error.notification_not_found":  "notification not found",
		"error.seller_not_found":        "seller not found",
		"error.wallet_account_missing":  "wallet account not found",
		"error.variant_type_exists":     "variant type already registered for this category",
		"error.option_exists":           "variant option already exists",
		"error.type_not_registered":     "variant type is not registered on the product category",
		"error.stock_invalid":           "stock count must be zero or positive",
		"error.price_invalid":           "price must be zero or positive",
		"error.price_composition":       "combined variant price cannot be negative",
		"error.combination_stock_bad":   "combination stock map is invalid",
		"error.insufficient_stock":      "Only %d items left",
		"error.order_item_invalid":      "order item is invalid",
		"error.cart_item_invalid":       "cart item is invalid",
		"error.quantity_invalid":        "quantity must be positive",
		"error.order_status_invalid":    "order status transition not allowed",
		"error.order_not_cancellable":   "order can no longer be cancelled",
		"error.product_not_available":   "product is not available",
		"error.product_not_approved":    "product is awaiting approval",
		"error.governorate_invalid":     "governorate id is invalid",
		"error.login_failed":            "email or password is incorrect",
		"error.login_too_many":          "too many login attempts, try again later",
		"error.order_too_many":          "too many order requests, try again later",
		"error.not_product_seller":      "you are not the seller of this product",
		"error.seller_role_required":    "only artists and stores can sell products",

		"error.email_invalid":       "email address is invalid",
		"error.email_exists":        "email address is already registered",
		"error.password_invalid":    "password must be at least 8 characters",
		"error.password_old_invalid": "current password is incorrect",
		"error.password_weak":       "password does not meet the minimum requirements",
		"error.user_type_invalid":   "user type is invalid",
		"error.user_disabled":       "account is disabled",
		"error.profile_empty":       "no profile fields to update",
		"error.user_id_invalid":      "user id is invalid",
		"error.user_id_type_invalid": "user id has unexpected type",
		"error.user_fetch_failed":    "failed to load users",
		"error.user_update_failed":   "failed to update user",
		"error.user_login_log_fetch_failed": "failed to load login logs",

		"error.slug_exists":           "slug is already in use",
		"error.category_fetch_failed": "failed to load categories",
		"error.category_has_children": "category still has child categories",
		"error.category_has_products": "category still has products",
		"error.category_cycle":        "category parent chain would form a cycle",
		"error.variant_option_exists":    "variant option already exists",
		"error.variant_option_not_found": "variant option not found",
		"error.variant_option_in_use":    "variant option is referenced by product selections",
		"error.product_fetch_failed":     "failed to load products",
		"error.approval_status_invalid":  "approval status must be approved or rejected",
		"error.migration_failed":         "legacy variant migration failed",

		"error.order_id_invalid":      "order id is invalid",
		"error.order_fetch_failed":    "failed to load orders",
		"error.shipping_unavailable":  "seller does not ship to this governorate",
		"error.wallet_amount_invalid": "amount must be positive",
		"error.wallet_insufficient":   "wallet balance is insufficient",

		"error.admin_login_invalid":          "username or password is incorrect",
		"error.admin_id_invalid":             "admin id is invalid",
		"error.admin_id_type_invalid":        "admin id has unexpected type",
		"error.admin_username_invalid":       "admin username is invalid",
		"error.admin_username_exists":        "admin username is already taken",
		"error.admin_create_failed":          "failed to create admin",
		"error.admin_update_failed":          "failed to update admin",
		"error.admin_delete_failed":          "failed to delete admin",
		"error.admin_delete_self_forbidden":  "cannot delete your own admin account",
		"error.admin_delete_protected":       "this admin account is protected",
		"error.admin_delete_last_forbidden":  "cannot delete the last admin account",
		"error.config_fetch_failed":          "failed to load data",
		"error.save_failed":                  "failed to save changes",

		"error.jwt_secret_missing":      "authentication is not configured",
		"error.auth_header_missing":     "authorization header is required",
		"error.auth_header_invalid":     "authorization header is malformed",
		"error.token_invalid":           "token is invalid or expired",
		"error.token_revoked":           "token has been revoked, sign in again",
		"error.rate_limited":            "too many requests, try again in %d seconds",
		"error.rate_limit_unavailable":  "rate limiter is unavailable",
	},
	"ar": {
		"success": "تم بنجاح",

		"error.bad_request":    "طلب غير صالح",
		"error.unauthorized":   "يجب تسجيل الدخول",
		"error.forbidden":      "غير مسموح",
		"error.not_found":      "العنصر غير موجود",
		"error.conflict_retry": "تم تعديل البيانات في نفس الوقت، حاول مرة أخرى",
		"error.internal":       "خطأ داخلي في الخادم",

		"error.validation_failed":       "فشل التحقق من البيانات",
		"error.category_not_found":      "القسم غير موجود",
		"error.product_not_found":       "المنتج غير موجود",
		"error.variant_type_not_found":  "نوع الخيار غير موجود",
		"error.option_not_found":        "الخيار غير موجود",
		"error.order_not_found":         "الطلب غير موجود",
		"error.user_not_found":          "المستخدم غير موجود",
		"error.cart_item_not_found":     "العنصر غير موجود في السلة",
		"error.notification_not_found":  "الإشعار غير موجود",
		"error.seller_not_found":        "البائع غير موجود",
		"error.wallet_account_missing":  "المحفظة غير موجودة",
		"error.variant_type_exists":     "نوع الخيار مسجل بالفعل لهذا القسم",
		"error.option_exists":           "الخيار موجود بالفعل",
		"error.type_not_registered":     "نوع الخيار غير مسجل على قسم المنتج",
		"error.stock_invalid":           "المخزون يجب أن يكون صفرًا أو أكثر",
		"error.price_invalid":           "السعر يجب أن يكون صفرًا أو أكثر",
		"error.price_composition":       "السعر المركب للخيار لا يمكن أن يكون سالبًا",
		"error.combination_stock_bad":   "خريطة مخزون التوليفات غير صالحة",
		"error.insufficient_stock":      "متبقي %d قطعة فقط",
		"error.order_item_invalid":      "عنصر الطلب غير صالح",
		"error.cart_item_invalid":       "عنصر السلة غير صالح",
		"error.quantity_invalid":        "الكمية يجب أن تكون أكبر من صفر",
		"error.order_status_invalid":    "لا يمكن تغيير حالة الطلب بهذا الشكل",
		"error.order_not_cancellable":   "لا يمكن إلغاء الطلب الآن",
		"error.product_not_available":   "المنتج غير متاح",
		"error.product_not_approved":    "المنتج قيد المراجعة",
		"error.governorate_invalid":     "رقم المحافظة غير صالح",
		"error.login_failed":            "البريد الإلكتروني أو كلمة المرور غير صحيحة",
		"error.login_too_many":          "محاولات تسجيل دخول كثيرة، حاول لاحقًا",
		"error.order_too_many":          "طلبات كثيرة، حاول لاحقًا",
		"error.not_product_seller":      "أنت لست بائع هذا المنتج",
		"error.seller_role_required":    "البيع متاح للفنانين والمتاجر فقط",

		"error.email_invalid":       "البريد الإلكتروني غير صالح",
		"error.email_exists":        "البريد الإلكتروني مسجل بالفعل",
		"error.password_invalid":    "كلمة المرور يجب ألا تقل عن 8 أحرف",
		"error.password_old_invalid": "كلمة المرور الحالية غير صحيحة",
		"error.password_weak":       "كلمة المرور لا تحقق الحد الأدنى من المتطلبات",
		"error.user_type_invalid":   "نوع المستخدم غير صالح",
		"error.user_disabled":       "الحساب موقوف",
		"error.profile_empty":       "لا توجد بيانات لتحديثها",
		"error.user_id_invalid":      "رقم المستخدم غير صالح",
		"error.user_id_type_invalid": "نوع رقم المستخدم غير متوقع",
		"error.user_fetch_failed":    "تعذر تحميل المستخدمين",
		"error.user_update_failed":   "تعذر تحديث المستخدم",
		"error.user_login_log_fetch_failed": "تعذر تحميل سجلات الدخول",

		"error.slug_exists":           "المعرف النصي مستخدم بالفعل",
		"error.category_fetch_failed": "تعذر تحميل الأقسام",
		"error.category_has_children": "القسم ما زال يحتوي على أقسام فرعية",
		"error.category_has_products": "القسم ما زال يحتوي على منتجات",
		"error.category_cycle":        "سلسلة الأقسام ستشكل حلقة",
		"error.variant_option_exists":    "الخيار موجود بالفعل",
		"error.variant_option_not_found": "الخيار غير موجود",
		"error.variant_option_in_use":    "الخيار مستخدم في اختيارات منتجات",
		"error.product_fetch_failed":     "تعذر تحميل المنتجات",
		"error.approval_status_invalid":  "حالة المراجعة يجب أن تكون قبول أو رفض",
		"error.migration_failed":         "فشل ترحيل الخيارات القديمة",

		"error.order_id_invalid":      "رقم الطلب غير صالح",
		"error.order_fetch_failed":    "تعذر تحميل الطلبات",
		"error.shipping_unavailable":  "البائع لا يشحن إلى هذه المحافظة",
		"error.wallet_amount_invalid": "المبلغ يجب أن يكون أكبر من صفر",
		"error.wallet_insufficient":   "رصيد المحفظة غير كافٍ",

		"error.admin_login_invalid":          "اسم المستخدم أو كلمة المرور غير صحيحة",
		"error.admin_id_invalid":             "رقم المشرف غير صالح",
		"error.admin_id_type_invalid":        "نوع رقم المشرف غير متوقع",
		"error.admin_username_invalid":       "اسم المشرف غير صالح",
		"error.admin_username_exists":        "اسم المشرف مستخدم بالفعل",
		"error.admin_create_failed":          "تعذر إنشاء المشرف",
		"error.admin_update_failed":          "تعذر تحديث المشرف",
		"error.admin_delete_failed":          "تعذر حذف المشرف",
		"error.admin_delete_self_forbidden":  "لا يمكنك حذف حسابك",
		"error.admin_delete_protected":       "هذا الحساب محمي",
		"error.admin_delete_last_forbidden":  "لا يمكن حذف آخر حساب مشرف",
		"error.config_fetch_failed":          "تعذر تحميل البيانات",
		"error.save_failed":                  "تعذر حفظ التغييرات",

		"error.jwt_secret_missing":      "لم يتم ضبط إعدادات الدخول",
		"error.auth_header_missing":     "ترويسة التفويض مطلوبة",
		"error.auth_header_invalid":     "ترويسة التفويض غير صالحة",
		"error.token_invalid":           "رمز الدخول غير صالح أو منتهي",
		"error.token_revoked":           "تم إبطال رمز الدخول، سجل الدخول مجددًا",
		"error.rate_limited":            "طلبات كثيرة، حاول بعد %d ثانية",
		"error.rate_limit_unavailable":  "خدمة تحديد المعدل غير متاحة",
	},
}
